package zones_test

import (
	"testing"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/analysis/oracle"
	"github.com/parzone/parzone/analysis/zones"
)

// addOne conjoins a guard expecting no split and returns the single result.
func addOne(t *testing.T, D *zones.PDBM, g zones.AtomicGuard, C expr.ConstraintSet, o zones.Oracle) (expr.ConstraintSet, *zones.PDBM) {
	t.Helper()
	pairs := D.AddGuard(g, C, o)
	if len(pairs) != 1 {
		t.Fatalf("expected a single result from AddGuard(%s), got %d", g, len(pairs))
	}
	return pairs[0].C, pairs[0].D
}

func rat(n int64) *numeric.Rational { return numeric.FromInt(n) }

func TestInitialShape(t *testing.T) {
	c1, c2 := defs.NewClock(), defs.NewClock()
	D := zones.Initial([]defs.Clock{c2, c1})

	if D.Size() != 3 {
		t.Fatalf("expected a 3×3 matrix, got %d", D.Size())
	}
	if !D.Clocks()[0].IsZero() {
		t.Error("index 0 must hold the zero clock")
	}
	if !D.Clocks()[1].Equal(c1) || !D.Clocks()[2].Equal(c2) {
		t.Error("non-zero clocks must lay out in identity order")
	}

	for i := 0; i < 3; i++ {
		d := D.Guard(i, i)
		if d.Rel() != expr.LE || !d.Bound().Const().IsZero() {
			t.Errorf("diagonal (%d,%d) must be ≤ 0, got %s", i, i, d)
		}
	}
	for j := 1; j < 3; j++ {
		g := D.Guard(0, j)
		if g.Rel() != expr.LE || !g.Bound().Const().IsZero() {
			t.Errorf("row 0 must encode clock non-negativity, got %s", g)
		}
		h := D.Guard(j, 0)
		if !h.Bound().Const().IsPosInf() {
			t.Errorf("column 0 must start unbounded, got %s", h)
		}
	}
}

func TestAddGuardImplied(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	_, D := addOne(t, D0, zones.NewGuard(c1, c2, expr.Const(rat(5)), expr.LT), expr.True, o)

	// Adding the weaker bound c1 - c2 < 10 changes nothing.
	C1, D1 := addOne(t, D, zones.NewGuard(c1, c2, expr.Const(rat(10)), expr.LT), expr.True, o)
	if !C1.IsTrue() {
		t.Errorf("expected ⊤, got %s", C1)
	}
	if !D1.Equal(D) {
		t.Errorf("expected the matrix unchanged,\nbefore:\n%s\nafter:\n%s", D, D1)
	}
}

func TestAddGuardStricter(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	_, D := addOne(t, D0, zones.NewGuard(c1, c2, expr.Const(rat(5)), expr.LT), expr.True, o)
	_, D1 := addOne(t, D, zones.NewGuard(c1, c2, expr.Const(rat(3)), expr.LT), expr.True, o)

	g := D1.GuardFor(c1, c2)
	if g.Rel() != expr.LT || !g.Bound().Const().Equal(rat(3)) {
		t.Errorf("expected c1 - c2 < 3, got %s", g)
	}
}

func TestAddGuardParametricSplit(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	p := defs.NewParameter()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	_, D := addOne(t, D0, zones.NewGuard(c1, c2, expr.Param(p), expr.LT), expr.True, o)

	pairs := D.AddGuard(zones.NewGuard(c1, c2, expr.Const(rat(10)), expr.LT), expr.True, o)
	if len(pairs) != 2 {
		t.Fatalf("expected a parameter split into 2 results, got %d", len(pairs))
	}

	var kept, tightened *zones.Pair
	for i := range pairs {
		if pairs[i].D.Equal(D) {
			kept = &pairs[i]
		} else {
			tightened = &pairs[i]
		}
	}
	if kept == nil || tightened == nil {
		t.Fatal("expected one branch keeping the matrix and one tightening it")
	}

	g := tightened.D.GuardFor(c1, c2)
	if g.Rel() != expr.LT || !g.Bound().Const().Equal(rat(10)) {
		t.Errorf("expected the tightened branch to carry c1 - c2 < 10, got %s", g)
	}

	// The two constraint sets partition the parameter space.
	if o.IsSat(kept.C) != zones.Sat || o.IsSat(tightened.C) != zones.Sat {
		t.Error("both branches should be satisfiable")
	}
	if o.IsSat(kept.C.AndSet(tightened.C)) != zones.Unsat {
		t.Error("the branches should be mutually exclusive")
	}
}

func TestAddGuardForeignClockIsVacuous(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2, foreign := defs.NewClock(), defs.NewClock(), defs.NewClock()
	D := zones.Initial([]defs.Clock{c1, c2})

	C1, D1 := addOne(t, D, zones.LessThan(foreign, rat(7)), expr.True, o)
	if !D1.Equal(D) || !C1.IsTrue() {
		t.Error("a guard over an untracked clock should leave the zone unchanged")
	}
}

func TestCanonicalChain(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2, c3 := defs.NewClock(), defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2, c3})

	_, D := addOne(t, D0, zones.LessThan(c1, rat(10)), expr.True, o)
	_, D = addOne(t, D, zones.NewGuard(c2, c1, expr.Const(rat(5)), expr.LT), expr.True, o)
	_, D = addOne(t, D, zones.NewGuard(c3, c2, expr.Const(rat(2)), expr.LT), expr.True, o)

	res := D.Canonical(expr.True, o)
	if len(res) != 1 {
		t.Fatalf("expected a single canonical result, got %d", len(res))
	}
	can := res[0].D

	g20 := can.GuardFor(c2, defs.ZeroClock)
	if g20.Rel() != expr.LT || !g20.Bound().Const().Equal(rat(15)) {
		t.Errorf("expected c2 < 15, got %s", g20)
	}
	g30 := can.GuardFor(c3, defs.ZeroClock)
	if g30.Rel() != expr.LT || !g30.Bound().Const().Equal(rat(17)) {
		t.Errorf("expected c3 < 17, got %s", g30)
	}

	// Canonical is idempotent.
	again := can.Canonical(res[0].C, o)
	if len(again) != 1 || !again[0].D.Equal(can) || !again[0].C.Equal(res[0].C) {
		t.Error("canonicalising a canonical pair should be the identity")
	}
}

func TestCanonicalContradiction(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	_, D := addOne(t, D0, zones.NewGuard(c1, c2, expr.Const(rat(5)), expr.LT), expr.True, o)
	_, D = addOne(t, D, zones.NewGuard(c2, c1, expr.Const(rat(-10)), expr.LT), expr.True, o)

	if res := D.Canonical(expr.True, o); len(res) != 0 {
		t.Errorf("expected the contradictory zone to vanish, got %d results", len(res))
	}
}

func TestCanonicalParametricSplit(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	p := defs.NewParameter()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	// Under p ≥ 1: c1 < p, c2 - c1 < 2, c2 < 4. Composing through c1
	// bounds c2 by p + 2, which beats the direct bound 4 exactly when
	// p < 2. (The p ≥ 1 seed keeps the p = 0 corner from splitting the
	// non-negativity row as well.)
	C0 := expr.True.And(expr.NewConstraint(expr.Param(p), expr.Const(rat(1)), expr.GE))
	_, D := addOne(t, D0, zones.NewGuard(c1, defs.ZeroClock, expr.Param(p), expr.LT), C0, o)
	_, D = addOne(t, D, zones.NewGuard(c2, c1, expr.Const(rat(2)), expr.LT), C0, o)
	_, D = addOne(t, D, zones.LessThan(c2, rat(4)), C0, o)

	res := D.Canonical(C0, o)
	if len(res) != 2 {
		t.Fatalf("expected the parameter space to split into 2 regions, got %d", len(res))
	}

	direct := expr.Const(rat(4))
	viaP := expr.Param(p).Add(expr.Const(rat(2)))
	var sawDirect, sawViaP bool
	for _, pair := range res {
		g := pair.D.GuardFor(c2, defs.ZeroClock)
		switch {
		case g.Bound().Equal(direct):
			sawDirect = true
		case g.Bound().Equal(viaP) && g.Rel() == expr.LT:
			sawViaP = true
		default:
			t.Errorf("unexpected bound on c2: %s", g)
		}
	}
	if !sawDirect || !sawViaP {
		t.Error("expected one region keeping c2 < 4 and one tightening to c2 < p + 2")
	}

	// The regions partition the parameter space.
	if o.IsSat(res[0].C) != zones.Sat || o.IsSat(res[1].C) != zones.Sat {
		t.Error("both regions should be satisfiable")
	}
	if o.IsSat(res[0].C.AndSet(res[1].C)) != zones.Unsat {
		t.Error("the regions should be mutually exclusive")
	}
}

func TestDelay(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	_, D := addOne(t, D0, zones.LessThan(c1, rat(10)), expr.True, o)
	_, D = addOne(t, D, zones.NewGuard(c1, c2, expr.Const(rat(5)), expr.LT), expr.True, o)

	delayed := D.Delay()
	for i := 1; i < delayed.Size(); i++ {
		g := delayed.Guard(i, 0)
		if g.Rel() != expr.LT || !g.Bound().Const().IsPosInf() {
			t.Errorf("row %d: expected < ∞ against the zero clock, got %s", i, g)
		}
	}
	// Inter-clock bounds survive.
	g := delayed.GuardFor(c1, c2)
	if g.Rel() != expr.LT || !g.Bound().Const().Equal(rat(5)) {
		t.Errorf("expected c1 - c2 < 5 preserved, got %s", g)
	}
	// Row 0 survives.
	g = delayed.GuardFor(defs.ZeroClock, c1)
	if !g.Bound().Const().IsZero() {
		t.Errorf("expected x0 - c1 ≤ 0 preserved, got %s", g)
	}
}

func TestResetFormula(t *testing.T) {
	o := oracle.NewFourier()
	c1, c2 := defs.NewClock(), defs.NewClock()
	D0 := zones.Initial([]defs.Clock{c1, c2})

	// 15 < c2 < 20
	_, D := addOne(t, D0, zones.LessThan(c2, rat(20)), expr.True, o)
	_, D = addOne(t, D, zones.GreaterThan(c2, rat(15)), expr.True, o)

	reset := D.Reset(zones.NewResetSet(zones.ResetEntry{Clock: c1, Value: rat(5)}))

	g12 := reset.GuardFor(c1, c2)
	if g12.Rel() != expr.LT || !g12.Bound().Const().Equal(rat(-10)) {
		t.Errorf("expected c1 - c2 < -10, got %s", g12)
	}
	g21 := reset.GuardFor(c2, c1)
	if g21.Rel() != expr.LT || !g21.Bound().Const().Equal(rat(15)) {
		t.Errorf("expected c2 - c1 < 15, got %s", g21)
	}
	g10 := reset.GuardFor(c1, defs.ZeroClock)
	if g10.Rel() != expr.LE || !g10.Bound().Const().Equal(rat(5)) {
		t.Errorf("expected c1 ≤ 5, got %s", g10)
	}
	g01 := reset.GuardFor(defs.ZeroClock, c1)
	if g01.Rel() != expr.LE || !g01.Bound().Const().Equal(rat(-5)) {
		t.Errorf("expected x0 - c1 ≤ -5, got %s", g01)
	}
	// Bounds not involving c1 are untouched.
	g20 := reset.GuardFor(c2, defs.ZeroClock)
	if g20.Rel() != expr.LT || !g20.Bound().Const().Equal(rat(20)) {
		t.Errorf("expected c2 < 20 preserved, got %s", g20)
	}
}

func TestResetRejectsUnknownClock(t *testing.T) {
	c1, foreign := defs.NewClock(), defs.NewClock()
	D := zones.Initial([]defs.Clock{c1})

	defer func() {
		if recover() == nil {
			t.Error("resetting an untracked clock should panic")
		}
	}()
	D.Reset(zones.NewResetSet(zones.ResetEntry{Clock: foreign, Value: numeric.Zero}))
}

func TestIsEmpty(t *testing.T) {
	o := oracle.NewFourier()
	c1 := defs.NewClock()
	D := zones.Initial([]defs.Clock{c1})

	if D.IsEmpty(expr.True, o) {
		t.Error("the initial zone is non-empty")
	}

	p := defs.NewParameter()
	contradictory := expr.True.
		And(expr.NewConstraint(expr.Param(p), expr.Const(rat(1)), expr.GE)).
		And(expr.NewConstraint(expr.Param(p), expr.Const(rat(0)), expr.LE))
	if !D.IsEmpty(contradictory, o) {
		t.Error("an unsatisfiable constraint set should empty the zone")
	}
}
