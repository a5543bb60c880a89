package expr

import (
	"strings"

	"github.com/parzone/parzone/utils"

	"github.com/benbjohnson/immutable"
)

// Constraint is a linear inequality over parameters, normalised to the form
// E ⋈ 0 at construction: NewConstraint(L, R, rel) stores (L - R) rel 0.
// Values are immutable.
type Constraint struct {
	lhs LinExpr
	rel Relation
}

// NewConstraint builds the normalised constraint (left - right) rel 0.
func NewConstraint(left, right LinExpr, rel Relation) Constraint {
	return Constraint{left.Sub(right), rel}
}

// Lhs returns the normalised left-hand side E of E ⋈ 0.
func (c Constraint) Lhs() LinExpr {
	return c.lhs
}

// Rel returns the comparison operator.
func (c Constraint) Rel() Relation {
	return c.rel
}

// Negate returns ¬(E ⋈ 0), i.e. E ⋈' 0 for the negated relation.
func (c Constraint) Negate() Constraint {
	return Constraint{c.lhs, c.rel.Negate()}
}

// TriviallyTrue reports whether the constraint is a parameter-free
// tautology, like -1 < 0.
func (c Constraint) TriviallyTrue() bool {
	return c.lhs.IsConst() && c.rel.Holds(c.lhs.Const().Sign())
}

// TriviallyFalse reports whether the constraint is a parameter-free
// contradiction, like 1 ≤ 0.
func (c Constraint) TriviallyFalse() bool {
	return c.lhs.IsConst() && !c.rel.Holds(c.lhs.Const().Sign())
}

// Cmp orders constraints by left-hand side, then relation.
func (c Constraint) Cmp(o Constraint) int {
	if r := c.lhs.Cmp(o.lhs); r != 0 {
		return r
	}
	return int(c.rel) - int(o.rel)
}

// Equal is structural equality on the normalised form.
func (c Constraint) Equal(o Constraint) bool {
	return c.rel == o.rel && c.lhs.Equal(o.lhs)
}

func (c Constraint) Hash() uint32 {
	return utils.HashCombine(c.lhs.Hash(), uint32(c.rel))
}

func (c Constraint) String() string {
	return c.lhs.String() + " " + colorize.Rel(c.rel.String()) + " 0"
}

// PlainString renders without colorization.
func (c Constraint) PlainString() string {
	return c.lhs.PlainString() + " " + c.rel.String() + " 0"
}

// constraintComparer orders constraints for the sorted set backing
// ConstraintSet.
type constraintComparer struct{}

func (constraintComparer) Compare(a, b Constraint) int { return a.Cmp(b) }

// ConstraintSet is an ordered conjunction of parameter constraints,
// denoting a convex polyhedron in parameter space. The empty set is ⊤;
// there is no syntactic ⊥ — unsatisfiability is the oracle's to discover.
// Values are immutable.
type ConstraintSet struct {
	set *immutable.SortedMap[Constraint, struct{}]
}

// True is the empty conjunction ⊤.
var True = ConstraintSet{immutable.NewSortedMap[Constraint, struct{}](constraintComparer{})}

// NewConstraintSet builds a set from the given constraints.
func NewConstraintSet(cs ...Constraint) ConstraintSet {
	return True.AndAll(cs...)
}

// And conjoins a single constraint.
func (s ConstraintSet) And(c Constraint) ConstraintSet {
	if s.set == nil {
		s = True
	}
	return ConstraintSet{s.set.Set(c, struct{}{})}
}

// AndAll conjoins several constraints.
func (s ConstraintSet) AndAll(cs ...Constraint) ConstraintSet {
	for _, c := range cs {
		s = s.And(c)
	}
	return s
}

// AndSet conjoins two sets.
func (s ConstraintSet) AndSet(o ConstraintSet) ConstraintSet {
	res := s
	for it := o.set.Iterator(); !it.Done(); {
		c, _, _ := it.Next()
		res = res.And(c)
	}
	return res
}

// IsTrue reports whether the set is the empty conjunction ⊤.
func (s ConstraintSet) IsTrue() bool {
	return s.set == nil || s.set.Len() == 0
}

// Size returns the number of conjuncts.
func (s ConstraintSet) Size() int {
	if s.set == nil {
		return 0
	}
	return s.set.Len()
}

// Constraints returns the conjuncts in canonical order.
func (s ConstraintSet) Constraints() (cs []Constraint) {
	if s.set == nil {
		return nil
	}
	for it := s.set.Iterator(); !it.Done(); {
		c, _, _ := it.Next()
		cs = append(cs, c)
	}
	return
}

// HasTrivialContradiction reports whether some conjunct is a parameter-free
// contradiction. A cheap syntactic check; the full check is the oracle's.
func (s ConstraintSet) HasTrivialContradiction() bool {
	for _, c := range s.Constraints() {
		if c.TriviallyFalse() {
			return true
		}
	}
	return false
}

// Cmp orders sets lexicographically by their sorted conjuncts, shorter
// prefixes first.
func (s ConstraintSet) Cmp(o ConstraintSet) int {
	cs1, cs2 := s.Constraints(), o.Constraints()
	for i := 0; i < len(cs1) && i < len(cs2); i++ {
		if r := cs1[i].Cmp(cs2[i]); r != 0 {
			return r
		}
	}
	return len(cs1) - len(cs2)
}

// Equal is structural equality.
func (s ConstraintSet) Equal(o ConstraintSet) bool {
	return s.Cmp(o) == 0
}

func (s ConstraintSet) Hash() uint32 {
	hs := []uint32{0x5e7}
	for _, c := range s.Constraints() {
		hs = append(hs, c.Hash())
	}
	return utils.HashCombine(hs...)
}

func (s ConstraintSet) String() string {
	if s.IsTrue() {
		return "⊤"
	}
	strs := make([]string, 0, s.Size())
	for _, c := range s.Constraints() {
		strs = append(strs, c.String())
	}
	return "(" + strings.Join(strs, " ∧ ") + ")"
}

// PlainString renders without colorization.
func (s ConstraintSet) PlainString() string {
	if s.IsTrue() {
		return "⊤"
	}
	strs := make([]string, 0, s.Size())
	for _, c := range s.Constraints() {
		strs = append(strs, c.PlainString())
	}
	return "(" + strings.Join(strs, " ∧ ") + ")"
}
