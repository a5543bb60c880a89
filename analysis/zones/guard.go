package zones

import (
	"fmt"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/utils"
)

// AtomicGuard is an atomic clock difference constraint c1 - c2 ⋈ E, the
// basic building block of PDBMs. Construction canonicalises the operand
// order so that id(c1) ≤ id(c2), negating the bound and flipping the
// relation when the operands swap. Values are immutable.
type AtomicGuard struct {
	c1, c2 defs.Clock
	bound  expr.LinExpr
	rel    expr.Relation
}

// NewGuard builds a guard c1 - c2 rel bound. A self guard x - x ⋈ k whose
// constant bound refutes 0 ⋈ k is a programming error and panics;
// tautological self guards are permitted (they become the diagonal).
func NewGuard(c1, c2 defs.Clock, bound expr.LinExpr, rel expr.Relation) AtomicGuard {
	if c2.Less(c1) {
		c1, c2 = c2, c1
		bound = bound.Neg()
		rel = rel.Flip()
	}
	g := AtomicGuard{c1, c2, bound, rel}

	if c1.Equal(c2) && bound.IsConst() {
		// The self difference is 0, so 0 ⋈ k must hold.
		if !rel.Holds(bound.Const().Neg().Sign()) {
			panic(fmt.Sprintf("contradictory self guard: %s", g))
		}
	}
	return g
}

// Convenience constructors for bounds on a single clock against x0.

func LessThan(c defs.Clock, v *numeric.Rational) AtomicGuard {
	return NewGuard(c, defs.ZeroClock, expr.Const(v), expr.LT)
}

func LessEqual(c defs.Clock, v *numeric.Rational) AtomicGuard {
	return NewGuard(c, defs.ZeroClock, expr.Const(v), expr.LE)
}

func GreaterThan(c defs.Clock, v *numeric.Rational) AtomicGuard {
	return NewGuard(c, defs.ZeroClock, expr.Const(v), expr.GT)
}

func GreaterEqual(c defs.Clock, v *numeric.Rational) AtomicGuard {
	return NewGuard(c, defs.ZeroClock, expr.Const(v), expr.GE)
}

// Clock1 returns the left operand. For guards built by NewGuard it has the
// smaller clock id; Upper views and matrix cells keep positional order.
func (g AtomicGuard) Clock1() defs.Clock {
	return g.c1
}

// Clock2 returns the right operand.
func (g AtomicGuard) Clock2() defs.Clock {
	return g.c2
}

// Bound returns the guard's linear expression bound.
func (g AtomicGuard) Bound() expr.LinExpr {
	return g.bound
}

// Rel returns the guard's comparison operator.
func (g AtomicGuard) Rel() expr.Relation {
	return g.rel
}

// Negate returns the logical negation of the guard. The operands stay put;
// only the relation is negated.
func (g AtomicGuard) Negate() AtomicGuard {
	return AtomicGuard{g.c1, g.c2, g.bound, g.rel.Negate()}
}

// Upper returns the upper-bound view of the guard: c1 - c2 ≥ E becomes
// c2 - c1 ≤ -E. Matrix cells store only upper bounds.
func (g AtomicGuard) Upper() AtomicGuard {
	if g.rel.IsUpper() {
		return g
	}
	return AtomicGuard{g.c2, g.c1, g.bound.Neg(), g.rel.Flip()}
}

// Equal is structural equality on the canonicalised form.
func (g AtomicGuard) Equal(o AtomicGuard) bool {
	return g.rel == o.rel && g.c1.Equal(o.c1) && g.c2.Equal(o.c2) && g.bound.Equal(o.bound)
}

// Cmp orders guards by operands, then bound, then relation.
func (g AtomicGuard) Cmp(o AtomicGuard) int {
	if g.c1.Id() != o.c1.Id() {
		return int(g.c1.Id()) - int(o.c1.Id())
	}
	if g.c2.Id() != o.c2.Id() {
		return int(g.c2.Id()) - int(o.c2.Id())
	}
	if c := g.bound.Cmp(o.bound); c != 0 {
		return c
	}
	return int(g.rel) - int(o.rel)
}

func (g AtomicGuard) Hash() uint32 {
	return utils.HashCombine(g.c1.Hash(), g.c2.Hash(), g.bound.Hash(), uint32(g.rel))
}

func (g AtomicGuard) String() string {
	if g.c2.IsZero() {
		return fmt.Sprintf("%s %s %s", g.c1, g.rel, g.bound)
	}
	return fmt.Sprintf("%s - %s %s %s", g.c1, g.c2, g.rel, g.bound)
}
