package expr

import (
	"strings"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/utils"

	"github.com/benbjohnson/immutable"
)

// paramComparer orders parameters by allocation index for the sorted
// coefficient maps.
type paramComparer struct{}

func (paramComparer) Compare(a, b defs.Parameter) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// LinExpr is an affine form Σ cᵢ·pᵢ + k over parameters. Coefficients are
// nonzero rationals; the constant term may be ±∞ as a sentinel bound.
// Values are immutable.
type LinExpr struct {
	coeffs *immutable.SortedMap[defs.Parameter, *numeric.Rational]
	k      *numeric.Rational
	hash   uint32
}

func emptyCoeffs() *immutable.SortedMap[defs.Parameter, *numeric.Rational] {
	return immutable.NewSortedMap[defs.Parameter, *numeric.Rational](paramComparer{})
}

func mkExpr(coeffs *immutable.SortedMap[defs.Parameter, *numeric.Rational], k *numeric.Rational) LinExpr {
	if k.IsNaN() {
		panic(errNaNExpression)
	}
	hs := []uint32{k.Hash()}
	for it := coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		if c.IsNaN() {
			panic(errNaNExpression)
		}
		hs = append(hs, p.Hash(), c.Hash())
	}
	return LinExpr{coeffs, k, utils.HashCombine(hs...)}
}

// Const creates the constant expression k.
func Const(k *numeric.Rational) LinExpr {
	return mkExpr(emptyCoeffs(), k)
}

// Param creates the expression 1·p.
func Param(p defs.Parameter) LinExpr {
	return ParamCoeff(p, numeric.One)
}

// ParamCoeff creates the expression c·p. A zero coefficient collapses to
// the constant 0.
func ParamCoeff(p defs.Parameter, c *numeric.Rational) LinExpr {
	if c.IsZero() {
		return Const(numeric.Zero)
	}
	return mkExpr(emptyCoeffs().Set(p, c), numeric.Zero)
}

// Coeff returns the coefficient of p, zero if absent.
func (e LinExpr) Coeff(p defs.Parameter) *numeric.Rational {
	if c, ok := e.coeffs.Get(p); ok {
		return c
	}
	return numeric.Zero
}

// Const returns the constant term.
func (e LinExpr) Const() *numeric.Rational {
	return e.k
}

// IsConst reports whether the expression has no parameter terms.
func (e LinExpr) IsConst() bool {
	return e.coeffs.Len() == 0
}

// ForEachTerm visits the parameter terms in parameter order.
func (e LinExpr) ForEachTerm(f func(p defs.Parameter, c *numeric.Rational)) {
	for it := e.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		f(p, c)
	}
}

// Add computes e + o.
func (e LinExpr) Add(o LinExpr) LinExpr {
	coeffs := e.coeffs
	for it := o.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		sum := e.Coeff(p).Add(c)
		if sum.IsZero() {
			coeffs = coeffs.Delete(p)
		} else {
			coeffs = coeffs.Set(p, sum)
		}
	}
	return mkExpr(coeffs, e.k.Add(o.k))
}

// Sub computes e - o.
func (e LinExpr) Sub(o LinExpr) LinExpr {
	return e.Add(o.Neg())
}

// Neg computes -e.
func (e LinExpr) Neg() LinExpr {
	coeffs := emptyCoeffs()
	for it := e.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		coeffs = coeffs.Set(p, c.Neg())
	}
	return mkExpr(coeffs, e.k.Neg())
}

// Valuation maps parameters to concrete rational values. Parameters absent
// from the valuation evaluate to zero.
type Valuation map[defs.Parameter]*numeric.Rational

// Evaluate computes the value of the expression under a valuation.
func (e LinExpr) Evaluate(v Valuation) *numeric.Rational {
	res := e.k
	for it := e.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		if pv, ok := v[p]; ok {
			res = res.Add(c.Mul(pv))
		}
	}
	return res
}

type term struct {
	p defs.Parameter
	c *numeric.Rational
}

func (e LinExpr) terms() (ts []term) {
	for it := e.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		ts = append(ts, term{p, c})
	}
	return
}

// Cmp is a total order for canonical hashing and set storage: constants
// first, then coefficients in parameter order over the union of supports,
// with missing coefficients reading as zero.
func (e LinExpr) Cmp(o LinExpr) int {
	if c := e.k.Cmp(o.k); c != 0 {
		return c
	}

	ts1, ts2 := e.terms(), o.terms()
	i, j := 0, 0
	for i < len(ts1) || j < len(ts2) {
		switch {
		case i == len(ts1):
			if c := numeric.Zero.Cmp(ts2[j].c); c != 0 {
				return c
			}
			j++
		case j == len(ts2):
			if c := ts1[i].c.Cmp(numeric.Zero); c != 0 {
				return c
			}
			i++
		case ts1[i].p.Less(ts2[j].p):
			if c := ts1[i].c.Cmp(numeric.Zero); c != 0 {
				return c
			}
			i++
		case ts2[j].p.Less(ts1[i].p):
			if c := numeric.Zero.Cmp(ts2[j].c); c != 0 {
				return c
			}
			j++
		default:
			if c := ts1[i].c.Cmp(ts2[j].c); c != 0 {
				return c
			}
			i++
			j++
		}
	}
	return 0
}

// Equal is structural equality.
func (e LinExpr) Equal(o LinExpr) bool {
	return e.Cmp(o) == 0
}

// Hash computes a 32-bit hash over all terms.
func (e LinExpr) Hash() uint32 {
	return e.hash
}

func (e LinExpr) String() string {
	return e.render(func(s string) string { return colorize.Const(s) }, func(p defs.Parameter) string { return p.String() })
}

// PlainString renders the expression without colorization, for aligned
// tabular output.
func (e LinExpr) PlainString() string {
	return e.render(func(s string) string { return s }, func(p defs.Parameter) string { return p.Name() })
}

func (e LinExpr) render(col func(string) string, param func(defs.Parameter) string) string {
	var sb strings.Builder
	first := true
	for it := e.coeffs.Iterator(); !it.Done(); {
		p, c, _ := it.Next()
		if !first {
			sb.WriteString(" + ")
		}
		if !c.Equal(numeric.One) {
			sb.WriteString(col(c.String()))
			sb.WriteString("·")
		}
		sb.WriteString(param(p))
		first = false
	}
	if !e.k.IsZero() || first {
		if !first {
			if e.k.Sign() >= 0 {
				sb.WriteString(" + ")
			} else {
				sb.WriteString(" - ")
			}
			sb.WriteString(col(e.k.Abs().String()))
		} else {
			sb.WriteString(col(e.k.String()))
		}
	}
	return sb.String()
}
