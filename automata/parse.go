package automata

import (
	"fmt"
	"os"
	"strings"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/analysis/zones"

	"gopkg.in/yaml.v2"
)

// The YAML model format:
//
//	name: coffee
//	clocks: [x, y]
//	parameters: [p]
//	locations:
//	  - name: idle
//	    initial: true
//	    invariant: ["x <= p"]
//	  - name: busy
//	transitions:
//	  - from: idle
//	    to: busy
//	    action: press
//	    guard: ["x - y < 2*p + 5"]
//	    reset: ["x := 0"]

type yamlModel struct {
	Name        string           `yaml:"name"`
	Clocks      []string         `yaml:"clocks"`
	Parameters  []string         `yaml:"parameters"`
	Locations   []yamlLocation   `yaml:"locations"`
	Transitions []yamlTransition `yaml:"transitions"`
}

type yamlLocation struct {
	Name      string   `yaml:"name"`
	Initial   bool     `yaml:"initial"`
	Invariant []string `yaml:"invariant"`
}

type yamlTransition struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Action string   `yaml:"action"`
	Guard  []string `yaml:"guard"`
	Reset  []string `yaml:"reset"`
}

// ParseFile loads a PTA model from a YAML file.
func ParseFile(path string) (*PTA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse loads a PTA model from YAML source.
func Parse(raw []byte) (*PTA, error) {
	var m yamlModel
	if err := yaml.UnmarshalStrict(raw, &m); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if len(m.Locations) == 0 {
		return nil, fmt.Errorf("model %q declares no locations", m.Name)
	}

	env := &modelEnv{
		clocks: map[string]defs.Clock{},
		params: map[string]defs.Parameter{},
	}
	p := &PTA{
		Name:       m.Name,
		Invariants: map[Location][]zones.AtomicGuard{},
	}

	for _, name := range m.Clocks {
		if _, dup := env.clocks[name]; dup {
			return nil, fmt.Errorf("duplicate clock %q", name)
		}
		c := defs.NewNamedClock(name)
		env.clocks[name] = c
		p.Clocks = append(p.Clocks, c)
	}
	for _, name := range m.Parameters {
		if _, dup := env.params[name]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", name)
		}
		pr := defs.NewNamedParameter(name)
		env.params[name] = pr
		p.Params = append(p.Params, pr)
	}

	locs := map[string]Location{}
	haveInitial := false
	for _, yl := range m.Locations {
		if _, dup := locs[yl.Name]; dup {
			return nil, fmt.Errorf("duplicate location %q", yl.Name)
		}
		l := NewLocation(yl.Name)
		locs[yl.Name] = l
		p.Locations = append(p.Locations, l)

		for _, src := range yl.Invariant {
			g, err := env.parseGuard(src)
			if err != nil {
				return nil, fmt.Errorf("invariant of %q: %w", yl.Name, err)
			}
			p.Invariants[l] = append(p.Invariants[l], g)
		}
		if yl.Initial {
			if haveInitial {
				return nil, fmt.Errorf("multiple initial locations")
			}
			haveInitial = true
			p.Initial = l
		}
	}
	if !haveInitial {
		p.Initial = p.Locations[0]
	}

	for _, yt := range m.Transitions {
		src, ok := locs[yt.From]
		if !ok {
			return nil, fmt.Errorf("transition from unknown location %q", yt.From)
		}
		tgt, ok := locs[yt.To]
		if !ok {
			return nil, fmt.Errorf("transition to unknown location %q", yt.To)
		}
		t := Transition{
			Source: src,
			Target: tgt,
			Action: NewAction(yt.Action),
		}
		for _, g := range yt.Guard {
			guard, err := env.parseGuard(g)
			if err != nil {
				return nil, fmt.Errorf("transition %s -> %s: %w", yt.From, yt.To, err)
			}
			t.Guards = append(t.Guards, guard)
		}
		entries, err := env.parseResets(yt.Reset)
		if err != nil {
			return nil, fmt.Errorf("transition %s -> %s: %w", yt.From, yt.To, err)
		}
		t.Resets = zones.NewResetSet(entries...)
		p.Transitions = append(p.Transitions, t)
	}

	return p, nil
}

type modelEnv struct {
	clocks map[string]defs.Clock
	params map[string]defs.Parameter
}

var relTokens = []struct {
	tok string
	rel expr.Relation
}{
	// Two-character operators first so "<=" is not read as "<", "=".
	{"<=", expr.LE}, {">=", expr.GE}, {"≤", expr.LE}, {"≥", expr.GE},
	{"<", expr.LT}, {">", expr.GT},
}

// parseGuard reads an atomic guard `c1 [- c2] ⋈ E`.
func (env *modelEnv) parseGuard(src string) (zones.AtomicGuard, error) {
	var g zones.AtomicGuard

	lhs, rhs, rel, err := splitRelation(src)
	if err != nil {
		return g, err
	}

	c1, c2, err := env.parseClockDiff(lhs)
	if err != nil {
		return g, err
	}
	bound, err := env.parseLinExpr(rhs)
	if err != nil {
		return g, err
	}
	return zones.NewGuard(c1, c2, bound, rel), nil
}

func splitRelation(src string) (lhs, rhs string, rel expr.Relation, err error) {
	for _, rt := range relTokens {
		if i := strings.Index(src, rt.tok); i >= 0 {
			return strings.TrimSpace(src[:i]), strings.TrimSpace(src[i+len(rt.tok):]), rt.rel, nil
		}
	}
	return "", "", 0, fmt.Errorf("guard %q has no comparison operator", src)
}

// parseClockDiff reads `c` or `c1 - c2`.
func (env *modelEnv) parseClockDiff(src string) (defs.Clock, defs.Clock, error) {
	parts := strings.SplitN(src, "-", 2)
	name1 := strings.TrimSpace(parts[0])
	c1, ok := env.clocks[name1]
	if !ok {
		return c1, c1, fmt.Errorf("unknown clock %q", name1)
	}
	if len(parts) == 1 {
		return c1, defs.ZeroClock, nil
	}
	name2 := strings.TrimSpace(parts[1])
	c2, ok := env.clocks[name2]
	if !ok {
		return c1, c2, fmt.Errorf("unknown clock %q", name2)
	}
	return c1, c2, nil
}

// parseLinExpr reads a sum of terms `2*p + 5 - 1/2*q`.
func (env *modelEnv) parseLinExpr(src string) (expr.LinExpr, error) {
	res := expr.Const(numeric.Zero)
	if strings.TrimSpace(src) == "" {
		return res, fmt.Errorf("empty expression")
	}

	// Cut the sum into signed terms.
	sign := numeric.One
	term := strings.Builder{}
	flush := func() error {
		t := strings.TrimSpace(term.String())
		term.Reset()
		if t == "" {
			return fmt.Errorf("dangling operator in %q", src)
		}
		e, err := env.parseTerm(t)
		if err != nil {
			return err
		}
		if sign.Sign() < 0 {
			e = e.Neg()
		}
		res = res.Add(e)
		return nil
	}

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '+':
			if err := flush(); err != nil {
				return res, err
			}
			sign = numeric.One
		case '-':
			if strings.TrimSpace(term.String()) == "" && res.IsConst() && res.Const().IsZero() && sign.Sign() > 0 {
				// Leading negation.
				sign = numeric.NegOne
				continue
			}
			if err := flush(); err != nil {
				return res, err
			}
			sign = numeric.NegOne
		default:
			term.WriteByte(src[i])
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}

// parseTerm reads `k`, `p`, `k*p` or `∞`.
func (env *modelEnv) parseTerm(t string) (expr.LinExpr, error) {
	if i := strings.IndexByte(t, '*'); i >= 0 {
		coeff, err := numeric.FromString(strings.TrimSpace(t[:i]))
		if err != nil {
			return expr.LinExpr{}, err
		}
		name := strings.TrimSpace(t[i+1:])
		p, ok := env.params[name]
		if !ok {
			return expr.LinExpr{}, fmt.Errorf("unknown parameter %q", name)
		}
		return expr.ParamCoeff(p, coeff), nil
	}
	if p, ok := env.params[t]; ok {
		return expr.Param(p), nil
	}
	k, err := numeric.FromString(t)
	if err != nil {
		return expr.LinExpr{}, fmt.Errorf("term %q is neither a parameter nor a rational", t)
	}
	return expr.Const(k), nil
}

// parseResets reads `c := v` entries.
func (env *modelEnv) parseResets(srcs []string) ([]zones.ResetEntry, error) {
	entries := make([]zones.ResetEntry, 0, len(srcs))
	for _, src := range srcs {
		parts := strings.SplitN(src, ":=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("reset %q is not of the form `clock := value`", src)
		}
		name := strings.TrimSpace(parts[0])
		c, ok := env.clocks[name]
		if !ok {
			return nil, fmt.Errorf("reset of unknown clock %q", name)
		}
		v, err := numeric.FromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		if !v.IsFinite() || v.Sign() < 0 {
			return nil, fmt.Errorf("reset %q must use a finite non-negative value", src)
		}
		entries = append(entries, zones.ResetEntry{Clock: c, Value: v})
	}
	return entries, nil
}
