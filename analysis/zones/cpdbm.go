package zones

import (
	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/utils"
	"github.com/parzone/parzone/utils/hmap"
	i "github.com/parzone/parzone/utils/indenter"
)

// CPDBM is a constrained PDBM: the pair (C, D) of a parameter polyhedron
// and a matrix, denoting the set of (parameter valuation, clock valuation)
// pairs satisfying both. A thin immutable facade threading C through the
// PDBM operations and filtering out empty results.
type CPDBM struct {
	c expr.ConstraintSet
	d *PDBM
}

// New wraps a constraint set and a matrix.
func New(C expr.ConstraintSet, D *PDBM) *CPDBM {
	if D == nil {
		panic("CPDBM over a nil PDBM")
	}
	return &CPDBM{C, D}
}

// CreateInitial seeds the canonical zones ∀c. c ≥ 0 under C0. Pass
// expr.True for an unconstrained parameter space.
func CreateInitial(clocks []defs.Clock, C0 expr.ConstraintSet, o Oracle) []*CPDBM {
	return New(C0, Initial(clocks)).Canonical(o)
}

// ConstraintSet returns C.
func (z *CPDBM) ConstraintSet() expr.ConstraintSet {
	return z.c
}

// PDBM returns D.
func (z *CPDBM) PDBM() *PDBM {
	return z.d
}

// wrap lifts PDBM result pairs into CPDBMs, dropping empty ones.
func wrap(pairs []Pair, o Oracle) []*CPDBM {
	res := []*CPDBM{}
	for _, p := range pairs {
		z := New(p.C, p.D)
		if !z.IsEmpty(o) {
			res = append(res, z)
		}
	}
	return res
}

// AddGuard conjoins an atomic guard, splitting the parameter space when
// the oracle demands it. Empty results are filtered.
func (z *CPDBM) AddGuard(f AtomicGuard, o Oracle) []*CPDBM {
	return wrap(z.d.AddGuard(f, z.c, o), o)
}

// Canonical tightens the matrix to canonical form.
func (z *CPDBM) Canonical(o Oracle) []*CPDBM {
	return wrap(z.d.Canonical(z.c, o), o)
}

// Delay lets time elapse. The result is not canonical.
func (z *CPDBM) Delay() *CPDBM {
	return New(z.c, z.d.Delay())
}

// Reset snaps clocks to constants. The result is not canonical.
func (z *CPDBM) Reset(rs ResetSet) *CPDBM {
	return New(z.c, z.d.Reset(rs))
}

// AddGuardAndCanonical composes AddGuard with Canonical on every produced
// pair and unions the results.
func (z *CPDBM) AddGuardAndCanonical(f AtomicGuard, o Oracle) []*CPDBM {
	res := []*CPDBM{}
	for _, split := range z.AddGuard(f, o) {
		res = append(res, split.Canonical(o)...)
	}
	return Dedup(res)
}

// DelayAndCanonical composes Delay with Canonical.
func (z *CPDBM) DelayAndCanonical(o Oracle) []*CPDBM {
	return z.Delay().Canonical(o)
}

// ResetAndCanonical composes Reset with Canonical.
func (z *CPDBM) ResetAndCanonical(rs ResetSet, o Oracle) []*CPDBM {
	return z.Reset(rs).Canonical(o)
}

// IsEmpty decides whether the denotation of (C, D) is empty. An undecided
// oracle reads as non-empty.
func (z *CPDBM) IsEmpty(o Oracle) bool {
	if z.c.HasTrivialContradiction() {
		return true
	}
	if o.IsSat(z.c) == Unsat {
		return true
	}
	return z.d.IsEmpty(z.c, o)
}

// Dedup removes structural duplicates, preserving first-seen order.
func Dedup(zs []*CPDBM) []*CPDBM {
	seen := hmap.NewMap[bool](utils.MapHasher[*CPDBM]())
	res := make([]*CPDBM, 0, len(zs))
	for _, z := range zs {
		if !seen.Get(z) {
			seen.Set(z, true)
			res = append(res, z)
		}
	}
	return res
}

// Equal is structural equality on both components.
func (z *CPDBM) Equal(o *CPDBM) bool {
	if z == o {
		return true
	}
	return z.c.Equal(o.c) && z.d.Equal(o.d)
}

// Cmp orders by constraint set, then matrix.
func (z *CPDBM) Cmp(o *CPDBM) int {
	if c := z.c.Cmp(o.c); c != 0 {
		return c
	}
	return z.d.Cmp(o.d)
}

func (z *CPDBM) Hash() uint32 {
	return utils.HashCombine(z.c.Hash(), z.d.Hash())
}

func (z *CPDBM) String() string {
	return i.Indenter().Start("⟨").NestStringsSep(",",
		"C: "+z.c.String(),
		"D:\n"+z.d.String(),
	).End("⟩")
}
