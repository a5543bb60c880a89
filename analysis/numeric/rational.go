// Package numeric provides the exact extended-rational arithmetic every
// bound in the engine is computed with. No floating point anywhere.
package numeric

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/parzone/parzone/utils"
)

// Rational is an exact arbitrary-precision rational number, extended with
// the distinguished values +∞, -∞ and NaN. The canonical representation
// keeps gcd(num, den) = 1 and den > 0; the extended values are encoded with
// den = 0 (num > 0 is +∞, num < 0 is -∞, num = 0 is NaN).
//
// Values are immutable and small values are interned, so *Rational can be
// compared with Equal (or Cmp) but never mutated.
type Rational struct {
	num, den *big.Int
	hash     uint32
}

var (
	bigZero   = big.NewInt(0)
	bigOne    = big.NewInt(1)
	bigNegOne = big.NewInt(-1)
)

var (
	Zero   = &Rational{num: bigZero, den: bigOne, hash: utils.HashString("0")}
	One    = &Rational{num: bigOne, den: bigOne, hash: utils.HashString("1")}
	NegOne = &Rational{num: bigNegOne, den: bigOne, hash: utils.HashString("-1")}
	Inf    = &Rational{num: bigOne, den: bigZero, hash: utils.HashString("∞")}
	NegInf = &Rational{num: bigNegOne, den: bigZero, hash: utils.HashString("-∞")}
	NaN    = &Rational{num: bigZero, den: bigZero, hash: utils.HashString("NaN")}
)

// Interning cache for small rationals, keyed by canonical string.
// Read-mostly and shared process-wide.
var cache sync.Map

// cacheBitBudget bounds the size of interned values: the combined bit
// length of numerator and denominator must stay below it.
const cacheBitBudget = 64

func init() {
	for _, r := range []*Rational{Zero, One, NegOne, Inf, NegInf, NaN} {
		cache.Store(r.String(), r)
	}
	for i := int64(-16); i <= 16; i++ {
		if i != 0 && i != 1 && i != -1 {
			r := &Rational{num: big.NewInt(i), den: bigOne}
			r.hash = utils.HashString(r.String())
			cache.Store(r.String(), r)
		}
	}
}

func shouldCache(num, den *big.Int) bool {
	return num.BitLen()+den.BitLen() < cacheBitBudget
}

// mk normalizes and interns a rational given any numerator and denominator.
func mk(num, den *big.Int) *Rational {
	if den.Sign() == 0 {
		switch num.Sign() {
		case 1:
			return Inf
		case -1:
			return NegInf
		default:
			return NaN
		}
	}
	if num.Sign() == 0 {
		return Zero
	}

	num = new(big.Int).Set(num)
	den = new(big.Int).Set(den)
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	if g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(num), den); g.Cmp(bigOne) != 0 {
		num.Div(num, g)
		den.Div(den, g)
	}

	r := &Rational{num: num, den: den}
	r.hash = utils.HashString(r.String())

	if !shouldCache(num, den) {
		return r
	}
	if cached, ok := cache.LoadOrStore(r.String(), r); ok {
		return cached.(*Rational)
	}
	return r
}

// FromInt creates the rational n/1.
func FromInt(n int64) *Rational {
	switch n {
	case 0:
		return Zero
	case 1:
		return One
	case -1:
		return NegOne
	}
	return mk(big.NewInt(n), bigOne)
}

// FromRatio creates the rational num/den. A zero denominator yields
// ±∞ or NaN according to the sign of the numerator.
func FromRatio(num, den int64) *Rational {
	return mk(big.NewInt(num), big.NewInt(den))
}

// FromBigRatio creates the rational num/den from big integers.
func FromBigRatio(num, den *big.Int) *Rational {
	return mk(num, den)
}

// FromString parses "5", "-7/2", "∞", "-∞" or "NaN".
func FromString(s string) (*Rational, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, fmt.Errorf("empty rational literal")
	case "∞", "inf", "Inf":
		return Inf, nil
	case "-∞", "-inf", "-Inf":
		return NegInf, nil
	case "NaN":
		return NaN, nil
	}

	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, ok1 := new(big.Int).SetString(strings.TrimSpace(s[:i]), 10)
		den, ok2 := new(big.Int).SetString(strings.TrimSpace(s[i+1:]), 10)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("malformed rational literal %q", s)
		}
		return mk(num, den), nil
	}

	num, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed rational literal %q", s)
	}
	return mk(num, bigOne), nil
}

// PREDICATES

// IsFinite reports whether the value is neither infinite nor NaN.
func (r *Rational) IsFinite() bool {
	return r.den.Sign() != 0
}

// IsInf reports whether the value is +∞ or -∞.
func (r *Rational) IsInf() bool {
	return r.den.Sign() == 0 && r.num.Sign() != 0
}

func (r *Rational) IsPosInf() bool {
	return r == Inf
}

func (r *Rational) IsNegInf() bool {
	return r == NegInf
}

func (r *Rational) IsNaN() bool {
	return r == NaN
}

func (r *Rational) IsZero() bool {
	return r == Zero
}

// IsInt reports whether the value is a finite integer.
func (r *Rational) IsInt() bool {
	return r.IsFinite() && r.den.Cmp(bigOne) == 0
}

// Num returns the canonical numerator. Callers must not mutate it.
func (r *Rational) Num() *big.Int {
	return r.num
}

// Den returns the canonical denominator (zero for ±∞ and NaN). Callers
// must not mutate it.
func (r *Rational) Den() *big.Int {
	return r.den
}

// Sign returns -1, 0 or 1. Panics on NaN, which has no sign.
func (r *Rational) Sign() int {
	if r.IsNaN() {
		panic("sign of NaN")
	}
	return r.num.Sign()
}

// ARITHMETIC

// Add computes r + o. ∞ + (-∞) is NaN.
func (r *Rational) Add(o *Rational) *Rational {
	if r.IsNaN() || o.IsNaN() {
		return NaN
	}
	if r == Zero {
		return o
	}
	if o == Zero {
		return r
	}
	if r.IsInf() || o.IsInf() {
		if r.IsInf() && o.IsInf() {
			if r.num.Sign() != o.num.Sign() {
				return NaN
			}
			return r
		}
		if r.IsInf() {
			return r
		}
		return o
	}

	num := new(big.Int).Mul(r.num, o.den)
	num.Add(num, new(big.Int).Mul(o.num, r.den))
	den := new(big.Int).Mul(r.den, o.den)
	return mk(num, den)
}

// Sub computes r - o.
func (r *Rational) Sub(o *Rational) *Rational {
	if r.IsNaN() || o.IsNaN() {
		return NaN
	}
	return r.Add(o.Neg())
}

// Mul computes r * o. 0 * ±∞ is NaN.
func (r *Rational) Mul(o *Rational) *Rational {
	if r.IsNaN() || o.IsNaN() {
		return NaN
	}
	if r.IsInf() || o.IsInf() {
		if r.Sign() == 0 || o.Sign() == 0 {
			return NaN
		}
		if r.Sign()*o.Sign() > 0 {
			return Inf
		}
		return NegInf
	}
	if r.Sign() == 0 || o.Sign() == 0 {
		return Zero
	}
	return mk(new(big.Int).Mul(r.num, o.num), new(big.Int).Mul(r.den, o.den))
}

// Div computes r / o. Division by zero yields ±∞ (or NaN for 0/0);
// a finite value divided by ±∞ yields 0.
func (r *Rational) Div(o *Rational) *Rational {
	if r.IsNaN() || o.IsNaN() {
		return NaN
	}
	if o.IsZero() {
		if r.IsZero() {
			return NaN
		}
		if r.Sign() > 0 {
			return Inf
		}
		return NegInf
	}
	if o.IsInf() {
		if r.IsInf() {
			return NaN
		}
		return Zero
	}
	if r.IsInf() {
		if r.Sign()*o.Sign() > 0 {
			return Inf
		}
		return NegInf
	}
	return mk(new(big.Int).Mul(r.num, o.den), new(big.Int).Mul(r.den, o.num))
}

// Neg computes -r.
func (r *Rational) Neg() *Rational {
	switch r {
	case NaN:
		return NaN
	case Zero:
		return Zero
	case Inf:
		return NegInf
	case NegInf:
		return Inf
	}
	return mk(new(big.Int).Neg(r.num), r.den)
}

// Abs computes |r|.
func (r *Rational) Abs() *Rational {
	if r.IsNaN() {
		return NaN
	}
	if r == NegInf {
		return Inf
	}
	if r.num.Sign() < 0 {
		return r.Neg()
	}
	return r
}

// Max returns the greater of a and b, NaN if either is NaN.
func Max(a, b *Rational) *Rational {
	if a.IsNaN() || b.IsNaN() {
		return NaN
	}
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the lesser of a and b, NaN if either is NaN.
func Min(a, b *Rational) *Rational {
	if a.IsNaN() || b.IsNaN() {
		return NaN
	}
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// ORDER

// Cmp compares two rationals under the total order
// NaN > +∞ > finite > -∞.
func (r *Rational) Cmp(o *Rational) int {
	if r == o {
		return 0
	}
	if r.IsNaN() {
		return 1
	}
	if o.IsNaN() {
		return -1
	}
	if r.IsInf() {
		if o.IsInf() {
			return r.num.Cmp(o.num)
		}
		return r.num.Sign()
	}
	if o.IsInf() {
		return -o.num.Sign()
	}

	ad := new(big.Int).Mul(r.num, o.den)
	cb := new(big.Int).Mul(o.num, r.den)
	return ad.Cmp(cb)
}

// Equal is structural equality on the canonical representation.
func (r *Rational) Equal(o *Rational) bool {
	if r == o {
		return true
	}
	return r.num.Cmp(o.num) == 0 && r.den.Cmp(o.den) == 0
}

// Hash computes a 32-bit hash of the canonical representation.
func (r *Rational) Hash() uint32 {
	return r.hash
}

func (r *Rational) String() string {
	switch {
	case r.IsNaN():
		return "NaN"
	case r == Inf:
		return "∞"
	case r == NegInf:
		return "-∞"
	case r.den.Cmp(bigOne) == 0:
		return r.num.String()
	}
	return r.num.String() + "/" + r.den.String()
}
