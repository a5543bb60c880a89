package numeric

import (
	"testing"
)

func TestInterning(t *testing.T) {
	if FromInt(3) != FromInt(3) {
		t.Error("small integers should be interned")
	}
	if FromRatio(1, 2) != FromRatio(2, 4) {
		t.Error("1/2 and 2/4 should normalise to the same interned value")
	}
	if FromInt(0) != Zero || FromInt(1) != One {
		t.Error("0 and 1 should resolve to the package constants")
	}
	if FromRatio(5, 0) != Inf || FromRatio(-5, 0) != NegInf || FromRatio(0, 0) != NaN {
		t.Error("zero denominators should resolve to the extended constants")
	}
}

func TestNormalisation(t *testing.T) {
	r := FromRatio(-4, -6)
	if r.String() != "2/3" {
		t.Errorf("expected -4/-6 to normalise to 2/3, got %s", r)
	}
	r = FromRatio(4, -6)
	if r.String() != "-2/3" {
		t.Errorf("expected 4/-6 to normalise to -2/3, got %s", r)
	}
}

func TestExtendedArithmetic(t *testing.T) {
	cases := []struct {
		name string
		got  *Rational
		want *Rational
	}{
		{"∞ + 1", Inf.Add(One), Inf},
		{"∞ + ∞", Inf.Add(Inf), Inf},
		{"∞ - ∞", Inf.Sub(Inf), NaN},
		{"-∞ + ∞", NegInf.Add(Inf), NaN},
		{"0 * ∞", Zero.Mul(Inf), NaN},
		{"2 * ∞", FromInt(2).Mul(Inf), Inf},
		{"-2 * ∞", FromInt(-2).Mul(Inf), NegInf},
		{"1 / 0", One.Div(Zero), Inf},
		{"-1 / 0", NegOne.Div(Zero), NegInf},
		{"0 / 0", Zero.Div(Zero), NaN},
		{"1 / ∞", One.Div(Inf), Zero},
		{"NaN + 1", NaN.Add(One), NaN},
		{"1/2 + 1/3", FromRatio(1, 2).Add(FromRatio(1, 3)), FromRatio(5, 6)},
		{"1/2 - 1/2", FromRatio(1, 2).Sub(FromRatio(1, 2)), Zero},
		{"2/3 * 3/4", FromRatio(2, 3).Mul(FromRatio(3, 4)), FromRatio(1, 2)},
		{"(1/2) / (1/4)", FromRatio(1, 2).Div(FromRatio(1, 4)), FromInt(2)},
	}
	for _, c := range cases {
		if !c.got.Equal(c.want) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
}

func TestTotalOrder(t *testing.T) {
	// NaN > +∞ > finite > -∞
	increasing := []*Rational{NegInf, FromInt(-7), Zero, FromRatio(1, 3), One, FromInt(10), Inf, NaN}
	for i := 0; i < len(increasing); i++ {
		for j := 0; j < len(increasing); j++ {
			got := increasing[i].Cmp(increasing[j])
			switch {
			case i < j && got >= 0:
				t.Errorf("expected %s < %s, got cmp %d", increasing[i], increasing[j], got)
			case i == j && got != 0:
				t.Errorf("expected %s = %s, got cmp %d", increasing[i], increasing[j], got)
			case i > j && got <= 0:
				t.Errorf("expected %s > %s, got cmp %d", increasing[i], increasing[j], got)
			}
		}
	}
}

func TestFromString(t *testing.T) {
	for _, c := range []struct {
		src  string
		want *Rational
	}{
		{"5", FromInt(5)},
		{"-7/2", FromRatio(-7, 2)},
		{" 3/9 ", FromRatio(1, 3)},
		{"∞", Inf},
		{"-∞", NegInf},
		{"NaN", NaN},
	} {
		got, err := FromString(c.src)
		if err != nil {
			t.Errorf("FromString(%q): %v", c.src, err)
		} else if !got.Equal(c.want) {
			t.Errorf("FromString(%q): expected %s, got %s", c.src, c.want, got)
		}
	}

	for _, bad := range []string{"", "x", "1/", "/2", "1//2"} {
		if _, err := FromString(bad); err == nil {
			t.Errorf("FromString(%q): expected an error", bad)
		}
	}
}

func TestSignAndPredicates(t *testing.T) {
	if Zero.Sign() != 0 || One.Sign() != 1 || NegOne.Sign() != -1 {
		t.Error("wrong signs for finite constants")
	}
	if Inf.Sign() != 1 || NegInf.Sign() != -1 {
		t.Error("wrong signs for infinities")
	}
	defer func() {
		if recover() == nil {
			t.Error("Sign of NaN should panic")
		}
	}()
	NaN.Sign()
}
