package oracle

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/analysis/zones"

	log "github.com/sirupsen/logrus"
)

// SMTLib answers queries by handing SMT-LIB2 scripts to an external z3
// binary. A solver timeout or a missing binary degrades to unknown, which
// the engine treats as a pruned branch.
type SMTLib struct {
	binary  string
	timeout time.Duration
	queries uint64
}

var _ zones.Oracle = (*SMTLib)(nil)

// NewSMTLib locates the z3 binary on the PATH. The timeout applies per
// query; zero means a second.
func NewSMTLib(timeout time.Duration) (*SMTLib, error) {
	bin, err := exec.LookPath("z3")
	if err != nil {
		return nil, fmt.Errorf("z3 binary not found: %w", err)
	}
	if timeout == 0 {
		timeout = time.Second
	}
	return &SMTLib{binary: bin, timeout: timeout}, nil
}

// Queries returns the number of check-sat calls issued.
func (s *SMTLib) Queries() uint64 {
	return atomic.LoadUint64(&s.queries)
}

func (s *SMTLib) Name() string { return "z3" }

// script accumulates an SMT-LIB2 query over the logic QF_LRA.
type script struct {
	decls   map[string]bool
	asserts []string
	trivial bool
}

func newScript() *script {
	return &script{decls: map[string]bool{}}
}

func (sc *script) declare(name string) {
	if !sc.decls[name] {
		sc.decls[name] = true
		// Ambient theory: every variable is a non-negative real.
		sc.asserts = append(sc.asserts, fmt.Sprintf("(assert (>= %s 0))", name))
	}
}

func smtRat(r *numeric.Rational) string {
	if r.Sign() < 0 {
		return fmt.Sprintf("(- %s)", smtRat(r.Neg()))
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return fmt.Sprintf("(/ %s %s)", r.Num().String(), r.Den().String())
}

// sum renders Σ coeff·var + k + extra as an SMT-LIB term.
func (sc *script) sum(e expr.LinExpr, extra []string) string {
	terms := append([]string{}, extra...)
	e.ForEachTerm(func(p defs.Parameter, c *numeric.Rational) {
		name := "p!" + p.Name()
		sc.declare(name)
		terms = append(terms, fmt.Sprintf("(* %s %s)", smtRat(c), name))
	})
	if !e.Const().IsZero() || len(terms) == 0 {
		terms = append(terms, smtRat(e.Const()))
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "(+ " + strings.Join(terms, " ") + ")"
}

func relOp(r expr.Relation) string {
	switch r {
	case expr.LT:
		return "<"
	case expr.LE:
		return "<="
	case expr.GT:
		return ">"
	}
	return ">="
}

func (sc *script) assertConstraint(c expr.Constraint) {
	k := c.Lhs().Const()
	switch {
	case k.IsPosInf():
		if c.Rel().IsUpper() {
			sc.trivial = true
		}
		return
	case k.IsNegInf():
		if !c.Rel().IsUpper() {
			sc.trivial = true
		}
		return
	}
	sc.asserts = append(sc.asserts,
		fmt.Sprintf("(assert (%s %s 0))", relOp(c.Rel()), sc.sum(c.Lhs(), nil)))
}

func (sc *script) assertConstraintSet(C expr.ConstraintSet) {
	for _, c := range C.Constraints() {
		sc.assertConstraint(c)
	}
}

func (sc *script) assertCell(g zones.AtomicGuard) {
	if g.Bound().IsConst() {
		if k := g.Bound().Const(); k.IsPosInf() {
			return
		} else if k.IsNegInf() {
			// An upper bound of -∞ empties the zone outright.
			sc.trivial = true
			return
		}
	}
	var diff []string
	if !g.Clock1().IsZero() {
		name := "x!" + g.Clock1().Name()
		sc.declare(name)
		diff = append(diff, name)
	}
	if !g.Clock2().IsZero() {
		name := "x!" + g.Clock2().Name()
		sc.declare(name)
		diff = append(diff, fmt.Sprintf("(* (- 1) %s)", name))
	}
	sc.asserts = append(sc.asserts,
		fmt.Sprintf("(assert (%s %s %s))",
			relOp(g.Rel()),
			joinDiff(diff),
			sc.sum(g.Bound(), nil)))
}

func joinDiff(diff []string) string {
	switch len(diff) {
	case 0:
		return "0"
	case 1:
		return diff[0]
	}
	return "(+ " + strings.Join(diff, " ") + ")"
}

func (sc *script) render() string {
	var sb strings.Builder
	sb.WriteString("(set-logic QF_LRA)\n")
	for name := range sc.decls {
		fmt.Fprintf(&sb, "(declare-const %s Real)\n", name)
	}
	for _, a := range sc.asserts {
		sb.WriteString(a + "\n")
	}
	sb.WriteString("(check-sat)\n")
	return sb.String()
}

// check runs the script through z3, returning sat/unsat/unknown.
func (s *SMTLib) check(sc *script) zones.SatResult {
	atomic.AddUint64(&s.queries, 1)
	if sc.trivial {
		return zones.Unsat
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary, "-smt2", "-in")
	cmd.Stdin = strings.NewReader(sc.render())
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil && out.Len() == 0 {
		log.WithError(err).Warn("z3 invocation failed")
		return zones.SatUnknown
	}

	switch strings.TrimSpace(out.String()) {
	case "sat":
		return zones.Sat
	case "unsat":
		return zones.Unsat
	}
	return zones.SatUnknown
}

// IsSat decides satisfiability of the parameter polyhedron C.
func (s *SMTLib) IsSat(C expr.ConstraintSet) zones.SatResult {
	sc := newScript()
	sc.assertConstraintSet(C)
	return s.check(sc)
}

// CheckCoverage classifies c against C by two satisfiability checks.
func (s *SMTLib) CheckCoverage(c expr.Constraint, C expr.ConstraintSet) zones.CoverageResult {
	pos := newScript()
	pos.assertConstraintSet(C)
	pos.assertConstraint(c)

	neg := newScript()
	neg.assertConstraintSet(C)
	neg.assertConstraint(c.Negate())

	posSat := s.check(pos)
	negSat := s.check(neg)

	switch {
	case posSat == zones.Unsat:
		return zones.CoverNo
	case negSat == zones.Unsat:
		return zones.CoverYes
	case posSat == zones.Sat && negSat == zones.Sat:
		return zones.CoverSplit
	}
	return zones.CoverUnknown
}

// ZoneEmpty decides emptiness of C conjoined with every matrix entry.
func (s *SMTLib) ZoneEmpty(C expr.ConstraintSet, D *zones.PDBM) zones.SatResult {
	sc := newScript()
	sc.assertConstraintSet(C)
	n := D.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sc.assertCell(D.Guard(i, j))
		}
	}
	return s.check(sc)
}
