package oracle_test

import (
	"testing"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/oracle"
	"github.com/parzone/parzone/analysis/zones"
)

// The z3 backend must agree with the exact elimination backend whenever
// both decide. Skipped when no z3 binary is installed.
func TestSMTLibAgreesWithFourier(t *testing.T) {
	z3, err := oracle.NewSMTLib(0)
	if err != nil {
		t.Skip("z3 not installed:", err)
	}
	fm := oracle.NewFourier()

	p, q := defs.NewParameter(), defs.NewParameter()
	sets := []expr.ConstraintSet{
		expr.True,
		expr.NewConstraintSet(leq(p, 10)),
		expr.NewConstraintSet(leq(p, 5), geq(p, 10)),
		expr.True.And(expr.NewConstraint(expr.Param(p), expr.Param(q), expr.LE)).And(leq(q, 3)),
	}
	for _, C := range sets {
		got, want := z3.IsSat(C), fm.IsSat(C)
		if got == zones.SatUnknown {
			continue
		}
		if got != want {
			t.Errorf("IsSat(%s): z3 says %s, elimination says %s", C, got, want)
		}
	}

	covers := []struct {
		c expr.Constraint
		C expr.ConstraintSet
	}{
		{leq(p, 10), expr.NewConstraintSet(leq(p, 5))},
		{leq(p, 10), expr.True},
	}
	for _, tc := range covers {
		got, want := z3.CheckCoverage(tc.c, tc.C), fm.CheckCoverage(tc.c, tc.C)
		if got == zones.CoverUnknown {
			continue
		}
		if got != want {
			t.Errorf("CheckCoverage(%s, %s): z3 says %s, elimination says %s", tc.c, tc.C, got, want)
		}
	}
}
