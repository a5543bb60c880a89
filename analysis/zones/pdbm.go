package zones

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/utils"
	"github.com/parzone/parzone/utils/hmap"
	"github.com/parzone/parzone/utils/worklist"
)

// PDBM is a parametric difference-bound matrix: a conjunction of clock
// difference constraints whose bounds are linear expressions over
// parameters. Cell (i, j) stores the upper bound cᵢ - cⱼ ≺ Eᵢⱼ with
// ≺ ∈ {<, ≤}; the absence of a bound is encoded as ≤ +∞. Index 0 always
// holds the zero clock. Values are immutable: every operation returns fresh
// matrices and leaves its receiver untouched.
//
// Because bounds contain parameters, comparisons consult an Oracle and may
// be conditionally true: the split-producing operations return lists of
// (ConstraintSet, PDBM) pairs, each covering a sub-region of parameter
// space.
type PDBM struct {
	clocks []defs.Clock
	index  map[defs.Clock]int
	cells  []AtomicGuard
	hash   uint32
}

// Pair is a (ConstraintSet, PDBM) work item or result.
type Pair struct {
	C expr.ConstraintSet
	D *PDBM
}

func (p Pair) Hash() uint32 {
	return utils.HashCombine(p.C.Hash(), p.D.Hash())
}

func (p Pair) Equal(o Pair) bool {
	return p.C.Equal(o.C) && p.D.Equal(o.D)
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s,\n%s)", p.C, p.D)
}

// cellGuard builds a raw matrix cell without operand canonicalisation:
// the clock pair is positional and the relation must be an upper bound.
func cellGuard(c1, c2 defs.Clock, bound expr.LinExpr, rel expr.Relation) AtomicGuard {
	if !rel.IsUpper() {
		panic(errLowerCell)
	}
	return AtomicGuard{c1, c2, bound, rel}
}

func mkPDBM(clocks []defs.Clock, index map[defs.Clock]int, cells []AtomicGuard) *PDBM {
	hs := make([]uint32, 0, len(cells)+len(clocks))
	for _, c := range clocks {
		hs = append(hs, c.Hash())
	}
	for _, g := range cells {
		hs = append(hs, g.Hash())
	}
	return &PDBM{clocks, index, cells, utils.HashCombine(hs...)}
}

// Initial builds the zone ∀c. c ≥ 0 over the given clocks. The zero clock
// is placed at index 0 whether or not it appears in the argument; the
// remaining clocks are laid out in identity order.
func Initial(clocks []defs.Clock) *PDBM {
	unique := map[defs.Clock]bool{}
	layout := []defs.Clock{defs.ZeroClock}
	for _, c := range clocks {
		if !c.IsZero() && !unique[c] {
			unique[c] = true
			layout = append(layout, c)
		}
	}
	sort.Slice(layout[1:], func(i, j int) bool {
		return layout[i+1].Less(layout[j+1])
	})

	index := make(map[defs.Clock]int, len(layout))
	for i, c := range layout {
		index[c] = i
	}

	n := len(layout)
	zero := expr.Const(numeric.Zero)
	inf := expr.Const(numeric.Inf)
	cells := make([]AtomicGuard, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				cells[i*n+j] = cellGuard(layout[i], layout[j], zero, expr.LE)
			case i == 0:
				// x0 - cj ≤ 0, i.e. cj ≥ 0.
				cells[i*n+j] = cellGuard(layout[i], layout[j], zero, expr.LE)
			default:
				cells[i*n+j] = cellGuard(layout[i], layout[j], inf, expr.LE)
			}
		}
	}
	return mkPDBM(layout, index, cells)
}

// Size returns the matrix dimension (number of clocks, zero clock included).
func (D *PDBM) Size() int {
	return len(D.clocks)
}

// Clocks returns the clock layout. Callers must not mutate the slice.
func (D *PDBM) Clocks() []defs.Clock {
	return D.clocks
}

// Guard returns the cell (i, j). Panics when an index is out of range.
func (D *PDBM) Guard(i, j int) AtomicGuard {
	n := D.Size()
	if i < 0 || i >= n || j < 0 || j >= n {
		panic(fmt.Sprintf("PDBM index (%d, %d) out of range for size %d", i, j, n))
	}
	return D.cells[i*n+j]
}

// GuardFor returns the upper-bound cell for ci - cj.
func (D *PDBM) GuardFor(ci, cj defs.Clock) AtomicGuard {
	i, ok1 := D.index[ci]
	j, ok2 := D.index[cj]
	if !ok1 || !ok2 {
		panic(fmt.Sprintf("clocks (%s, %s) not in PDBM", ci.Name(), cj.Name()))
	}
	return D.Guard(i, j)
}

// Has reports whether the clock is part of the matrix layout.
func (D *PDBM) Has(c defs.Clock) bool {
	_, ok := D.index[c]
	return ok
}

func (D *PDBM) set(i, j int, g AtomicGuard) *PDBM {
	n := D.Size()
	cells := make([]AtomicGuard, len(D.cells))
	copy(cells, D.cells)
	cells[i*n+j] = g
	return mkPDBM(D.clocks, D.index, cells)
}

// isInfBound reports whether a cell bound is the +∞ sentinel.
func isInfBound(e expr.LinExpr) bool {
	return e.IsConst() && e.Const().IsPosInf()
}

// coverage builds the constraint κ: E_cur ⪯ E_new, where ⪯ is the
// conjunction of the two upper-bound relations. Infinite sentinels must be
// filtered by the caller; they never reach the oracle.
func coverage(cur, cand AtomicGuard) expr.Constraint {
	return expr.NewConstraint(cur.Bound(), cand.Bound(), cur.Rel().And(cand.Rel()))
}

// AddGuard conjoins an atomic clock difference constraint under the
// parameter constraint set C. The result covers C: one pair when the
// oracle decides the comparison outright, two on a parameter split, none
// when the oracle cannot decide. Canonicity is not restored here; callers
// follow up with Canonical.
func (D *PDBM) AddGuard(f AtomicGuard, C expr.ConstraintSet, o Oracle) []Pair {
	// A guard over clocks this matrix does not track is vacuous.
	if !D.Has(f.Clock1()) || !D.Has(f.Clock2()) {
		return []Pair{{C, D}}
	}

	up := f.Upper()
	i, j := D.index[up.Clock1()], D.index[up.Clock2()]
	if i == j {
		// Tautological self guard; contradictions were rejected at
		// construction.
		return []Pair{{C, D}}
	}

	cur := D.Guard(i, j)
	switch {
	case isInfBound(up.Bound()):
		// f imposes no bound.
		return []Pair{{C, D}}
	case isInfBound(cur.Bound()):
		// Any finite bound beats the +∞ sentinel.
		return []Pair{{C, D.set(i, j, up)}}
	}

	k := coverage(cur, up)
	switch o.CheckCoverage(k, C) {
	case CoverYes:
		return []Pair{{C, D}}
	case CoverNo:
		return []Pair{{C, D.set(i, j, up)}}
	case CoverSplit:
		return []Pair{
			{C.And(k), D},
			{C.And(k.Negate()), D.set(i, j, up)},
		}
	}
	// Unknown: prune the branch.
	return nil
}

// Canonical tightens all bounds by symbolic all-pairs shortest paths. The
// result is a list of canonical pairs partitioning C (minus empty
// sub-regions and branches lost to an undecided oracle).
func (D *PDBM) Canonical(C expr.ConstraintSet, o Oracle) []Pair {
	n := D.Size()
	results := []Pair{}
	seen := hmap.NewMap[bool](utils.MapHasher[Pair]())

	w := worklist.Empty[Pair]()
	w.Add(Pair{C, D})

	for !w.IsEmpty() {
		cur := w.GetNext()
		if seen.Get(cur) {
			continue
		}
		seen.Set(cur, true)

		if cur.C.HasTrivialContradiction() || o.ZoneEmpty(cur.C, cur.D) == Unsat {
			continue
		}

		cells := make([]AtomicGuard, len(cur.D.cells))
		copy(cells, cur.D.cells)
		working := func() *PDBM { return mkPDBM(cur.D.clocks, cur.D.index, cells) }

		changed, abandoned := false, false

	pass:
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					ik, kj, ij := cells[i*n+k], cells[k*n+j], cells[i*n+j]

					viaBound := ik.Bound().Add(kj.Bound())
					if isInfBound(viaBound) {
						// Paths through an unbounded edge never tighten.
						continue
					}
					viaRel := ik.Rel().And(kj.Rel())
					via := cellGuard(cur.D.clocks[i], cur.D.clocks[j], viaBound, viaRel)

					if isInfBound(ij.Bound()) {
						cells[i*n+j] = via
						changed = true
						continue
					}

					if via.Equal(ij) {
						// Re-deriving the stored bound is a no-op; with a
						// strict relation the coverage query would read
						// 0 < 0 and spin forever on "tighten".
						continue
					}

					cov := coverage(ij, via)
					switch o.CheckCoverage(cov, cur.C) {
					case CoverYes:
						// The entry is already at least as tight.
					case CoverNo:
						cells[i*n+j] = via
						changed = true
					case CoverSplit:
						// Fork the work pair; both children re-enter the
						// queue and the current pair is abandoned.
						w.Add(Pair{cur.C.And(cov), working()})
						tightened := make([]AtomicGuard, len(cells))
						copy(tightened, cells)
						tightened[i*n+j] = via
						w.Add(Pair{cur.C.And(cov.Negate()), mkPDBM(cur.D.clocks, cur.D.index, tightened)})
						abandoned = true
						break pass
					case CoverUnknown:
						// Soundness over completeness: drop the pair.
						abandoned = true
						break pass
					}
				}
			}
		}

		switch {
		case abandoned:
		case changed:
			// Another pass may find further path compositions.
			w.Add(Pair{cur.C, working()})
		default:
			results = append(results, cur)
		}
	}

	return results
}

// Delay removes the individual upper bounds of all non-zero clocks,
// letting time elapse. Canonicity must be restored by the caller.
func (D *PDBM) Delay() *PDBM {
	n := D.Size()
	cells := make([]AtomicGuard, len(D.cells))
	copy(cells, D.cells)
	inf := expr.Const(numeric.Inf)
	for i := 1; i < n; i++ {
		cells[i*n] = cellGuard(D.clocks[i], defs.ZeroClock, inf, expr.LT)
	}
	return mkPDBM(D.clocks, D.index, cells)
}

// Reset snaps the clocks in rs to their constant values. For every other
// clock cj the new difference bounds derive from the existing bounds
// against the zero clock, translated by the reset value. Canonicity must
// be restored by the caller.
func (D *PDBM) Reset(rs ResetSet) *PDBM {
	n := D.Size()
	cells := make([]AtomicGuard, len(D.cells))
	copy(cells, D.cells)
	zero := expr.Const(numeric.Zero)

	for _, entry := range rs.Entries() {
		cr, v := entry.Clock, entry.Value
		r, ok := D.index[cr]
		if !ok {
			panic(fmt.Sprintf("reset of clock %s not in PDBM", cr.Name()))
		}
		ve := expr.Const(v)

		for j := 0; j < n; j++ {
			if j == r {
				continue
			}
			cj := D.clocks[j]
			// cr - cj inherits from x0 - cj shifted up by v.
			zj := cells[0*n+j]
			cells[r*n+j] = cellGuard(cr, cj, ve.Add(zj.Bound()), zj.Rel())
			// cj - cr inherits from cj - x0 shifted down by v.
			jz := cells[j*n+0]
			cells[j*n+r] = cellGuard(cj, cr, jz.Bound().Sub(ve), jz.Rel())
		}
		cells[r*n+r] = cellGuard(cr, cr, zero, expr.LE)
	}
	return mkPDBM(D.clocks, D.index, cells)
}

// IsEmpty decides whether the zone under C is empty. An undecided oracle
// reads as non-empty.
func (D *PDBM) IsEmpty(C expr.ConstraintSet, o Oracle) bool {
	return o.ZoneEmpty(C, D) == Unsat
}

// Equal is structural equality on the clock layout and the full matrix.
func (D *PDBM) Equal(o *PDBM) bool {
	if D == o {
		return true
	}
	if len(D.clocks) != len(o.clocks) || len(D.cells) != len(o.cells) {
		return false
	}
	for i, c := range D.clocks {
		if !c.Equal(o.clocks[i]) {
			return false
		}
	}
	for i, g := range D.cells {
		if !g.Equal(o.cells[i]) {
			return false
		}
	}
	return true
}

// Cmp is a total order on matrices: dimension, then clock layout, then
// cells in row-major order.
func (D *PDBM) Cmp(o *PDBM) int {
	if c := D.Size() - o.Size(); c != 0 {
		return c
	}
	for i, c := range D.clocks {
		if d := int(c.Id()) - int(o.clocks[i].Id()); d != 0 {
			return d
		}
	}
	for i, g := range D.cells {
		if c := g.Cmp(o.cells[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (D *PDBM) Hash() uint32 {
	return D.hash
}

func (D *PDBM) String() string {
	n := D.Size()
	nameW := 0
	for _, c := range D.clocks {
		if len(c.Name()) > nameW {
			nameW = len(c.Name())
		}
	}
	entries := make([]string, len(D.cells))
	entryW := 0
	for i, g := range D.cells {
		entries[i] = g.Rel().String() + " " + plainExpr(g.Bound())
		if l := len([]rune(entries[i])); l > entryW {
			entryW = l
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s |", nameW, "")
	for _, c := range D.clocks {
		fmt.Fprintf(&sb, " %-*s", entryW, c.Name())
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", nameW+1) + "+" + strings.Repeat("-", (entryW+1)*n) + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%*s |", nameW, D.clocks[i].Name())
		for j := 0; j < n; j++ {
			e := entries[i*n+j]
			fmt.Fprintf(&sb, " %s%s", e, strings.Repeat(" ", entryW-len([]rune(e))))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
