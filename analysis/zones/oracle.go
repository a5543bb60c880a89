package zones

import "github.com/parzone/parzone/analysis/expr"

// SatResult is the outcome of a satisfiability query.
type SatResult uint8

const (
	Sat SatResult = iota
	Unsat
	SatUnknown
)

func (r SatResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// CoverageResult is the outcome of a coverage query for a constraint c
// against a constraint set C.
type CoverageResult uint8

const (
	// CoverYes: C ⊨ c.
	CoverYes CoverageResult = iota
	// CoverNo: C ⊨ ¬c.
	CoverNo
	// CoverSplit: both C ∧ c and C ∧ ¬c are satisfiable.
	CoverSplit
	// CoverUnknown: the oracle could not decide. The engine prunes the
	// affected branch, trading completeness for soundness.
	CoverUnknown
)

func (r CoverageResult) String() string {
	switch r {
	case CoverYes:
		return "YES"
	case CoverNo:
		return "NO"
	case CoverSplit:
		return "SPLIT"
	}
	return "UNKNOWN"
}

// Oracle is the decision procedure the engine consults at every comparison
// point. Implementations decide over linear real arithmetic with every
// parameter a non-negative real, the zero clock fixed at 0, and every other
// clock non-negative. Calls must be referentially transparent for a fixed
// set of clocks and parameters, and safe for use from multiple goroutines.
type Oracle interface {
	// IsSat decides satisfiability of the parameter polyhedron C.
	IsSat(C expr.ConstraintSet) SatResult

	// CheckCoverage classifies the constraint c against C.
	CheckCoverage(c expr.Constraint, C expr.ConstraintSet) CoverageResult

	// ZoneEmpty decides whether the zone denoted by C together with every
	// entry of D is empty. Unsat means empty; unknown is conservatively
	// treated as non-empty.
	ZoneEmpty(C expr.ConstraintSet, D *PDBM) SatResult
}
