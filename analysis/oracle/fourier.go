// Package oracle bundles decision procedures implementing zones.Oracle.
//
// Fourier is the default backend: an exact Fourier–Motzkin elimination over
// the engine's rationals, complete for the conjunctions of linear
// inequalities the engine emits. SMTLib pipes queries to an external z3
// process instead.
package oracle

import (
	"sync/atomic"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/analysis/zones"
)

// variable identifies an unknown in a query: a parameter or a clock.
// The zero clock never appears; it is substituted by 0 on construction.
type variable struct {
	clock bool
	id    uint32
}

// ineq is a normalised inequality Σ coeffs·v + k ≤ 0 (or < 0 when strict).
type ineq struct {
	coeffs map[variable]*numeric.Rational
	k      *numeric.Rational
	strict bool
}

// Fourier decides queries by exact Fourier–Motzkin elimination. It is
// stateless between calls and therefore trivially safe for concurrent use.
// It never answers unknown.
type Fourier struct {
	queries uint64
}

var _ zones.Oracle = (*Fourier)(nil)

// NewFourier creates the elimination-based oracle.
func NewFourier() *Fourier {
	return &Fourier{}
}

// Queries returns the number of satisfiability checks performed.
func (f *Fourier) Queries() uint64 {
	return atomic.LoadUint64(&f.queries)
}

func (f *Fourier) Name() string { return "fourier-motzkin" }

// system is the per-query scratch state: the inequalities gathered so far,
// including the ambient non-negativity of every mentioned variable.
type system struct {
	ineqs   []ineq
	trivial bool // trivially unsat, e.g. a +∞ bound
}

func (s *system) seen(v variable) bool {
	for _, iq := range s.ineqs {
		if _, ok := iq.coeffs[v]; ok {
			return true
		}
	}
	return false
}

// addVar asserts v ≥ 0, i.e. -v ≤ 0. It does not check for an existing
// assertion; add calls it only for variables not yet seen.
func (s *system) addVar(v variable) {
	s.ineqs = append(s.ineqs, ineq{
		coeffs: map[variable]*numeric.Rational{v: numeric.NegOne},
		k:      numeric.Zero,
	})
}

// add appends `lhs rel 0` where lhs ranges over parameters plus an optional
// clock difference ci - cj.
func (s *system) add(lhs expr.LinExpr, rel expr.Relation, clockTerms map[variable]*numeric.Rational) {
	// Normalise to upper form: E > 0 is -E < 0.
	neg := !rel.IsUpper()
	if neg {
		lhs = lhs.Neg()
	}
	strict := rel.IsStrict()

	k := lhs.Const()
	switch {
	case k.IsNaN():
		panic("NaN bound in oracle query")
	case k.IsPosInf():
		// Σ + ∞ ≤ 0 cannot hold for finite reals.
		s.trivial = true
		return
	case k.IsNegInf():
		// Σ - ∞ ≤ 0 always holds.
		return
	}

	coeffs := map[variable]*numeric.Rational{}
	lhs.ForEachTerm(func(p defs.Parameter, c *numeric.Rational) {
		coeffs[variable{false, p.Id()}] = c
	})
	for v, c := range clockTerms {
		if neg {
			c = c.Neg()
		}
		if old, ok := coeffs[v]; ok {
			c = old.Add(c)
		}
		if c.IsZero() {
			delete(coeffs, v)
			continue
		}
		coeffs[v] = c
	}

	// Ambient theory: every parameter and clock is a non-negative real.
	for v := range coeffs {
		if !s.seen(v) {
			s.addVar(v)
		}
	}

	s.ineqs = append(s.ineqs, ineq{coeffs, k, strict})
}

func (s *system) addConstraint(c expr.Constraint) {
	s.add(c.Lhs(), c.Rel(), nil)
}

func (s *system) addConstraintSet(C expr.ConstraintSet) {
	for _, c := range C.Constraints() {
		s.addConstraint(c)
	}
}

// addCell asserts ci - cj ⪯ E for a matrix cell. The zero clock reads as
// the constant 0.
func (s *system) addCell(g zones.AtomicGuard) {
	clockTerms := map[variable]*numeric.Rational{}
	if !g.Clock1().IsZero() {
		clockTerms[variable{true, g.Clock1().Id()}] = numeric.One
	}
	if !g.Clock2().IsZero() {
		v := variable{true, g.Clock2().Id()}
		if c, ok := clockTerms[v]; ok {
			clockTerms[v] = c.Add(numeric.NegOne)
		} else {
			clockTerms[v] = numeric.NegOne
		}
	}
	// ci - cj ⪯ E is ci - cj - E ⪯ 0.
	s.add(g.Bound().Neg(), g.Rel(), clockTerms)
}

// satisfiable runs the elimination. Each round removes one variable by
// combining every lower bound with every upper bound; what remains at the
// end is a set of ground facts k ⪯ 0.
func (f *Fourier) satisfiable(s *system) bool {
	atomic.AddUint64(&f.queries, 1)
	if s.trivial {
		return false
	}
	ineqs := s.ineqs

	for {
		// Pick any remaining variable.
		var elim variable
		found := false
		for _, iq := range ineqs {
			for v := range iq.coeffs {
				elim = v
				found = true
				break
			}
			if found {
				break
			}
		}
		if !found {
			break
		}

		var upper, lower, rest []ineq
		for _, iq := range ineqs {
			c, ok := iq.coeffs[elim]
			switch {
			case !ok:
				rest = append(rest, iq)
			case c.Sign() > 0:
				upper = append(upper, iq)
			default:
				lower = append(lower, iq)
			}
		}

		next := rest
		for _, up := range upper {
			a := up.coeffs[elim]
			for _, lo := range lower {
				b := lo.coeffs[elim].Neg()
				// Scale so the eliminated coefficients are ±1, then add.
				coeffs := map[variable]*numeric.Rational{}
				for v, c := range up.coeffs {
					if v != elim {
						coeffs[v] = c.Div(a)
					}
				}
				for v, c := range lo.coeffs {
					if v == elim {
						continue
					}
					c = c.Div(b)
					if old, ok := coeffs[v]; ok {
						c = old.Add(c)
					}
					if c.IsZero() {
						delete(coeffs, v)
						continue
					}
					coeffs[v] = c
				}
				next = append(next, ineq{
					coeffs: coeffs,
					k:      up.k.Div(a).Add(lo.k.Div(b)),
					strict: up.strict || lo.strict,
				})
			}
		}
		ineqs = next
	}

	for _, iq := range ineqs {
		sign := iq.k.Sign()
		if iq.strict && sign >= 0 {
			return false
		}
		if !iq.strict && sign > 0 {
			return false
		}
	}
	return true
}

// IsSat decides satisfiability of the parameter polyhedron C.
func (f *Fourier) IsSat(C expr.ConstraintSet) zones.SatResult {
	s := &system{}
	s.addConstraintSet(C)
	if f.satisfiable(s) {
		return zones.Sat
	}
	return zones.Unsat
}

// CheckCoverage classifies c against C by two satisfiability checks.
func (f *Fourier) CheckCoverage(c expr.Constraint, C expr.ConstraintSet) zones.CoverageResult {
	pos := &system{}
	pos.addConstraintSet(C)
	pos.addConstraint(c)

	neg := &system{}
	neg.addConstraintSet(C)
	neg.addConstraint(c.Negate())

	posSat := f.satisfiable(pos)
	negSat := f.satisfiable(neg)

	switch {
	case !posSat:
		return zones.CoverNo
	case !negSat:
		return zones.CoverYes
	default:
		return zones.CoverSplit
	}
}

// ZoneEmpty decides emptiness of C conjoined with every matrix entry.
func (f *Fourier) ZoneEmpty(C expr.ConstraintSet, D *zones.PDBM) zones.SatResult {
	s := &system{}
	s.addConstraintSet(C)
	n := D.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g := D.Guard(i, j)
			if g.Bound().IsConst() && g.Bound().Const().IsPosInf() {
				continue
			}
			s.addCell(g)
		}
	}
	if f.satisfiable(s) {
		return zones.Sat
	}
	return zones.Unsat
}
