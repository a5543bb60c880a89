package automata

import (
	"testing"

	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/numeric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `
name: sample
clocks: [x, y]
parameters: [p]
locations:
  - name: idle
    initial: true
    invariant: ["x <= p"]
  - name: busy
transitions:
  - from: idle
    to: busy
    action: press
    guard: ["x - y < 2*p + 5", "x >= 1"]
    reset: ["x := 0", "y := 1/2"]
`

func TestParseModel(t *testing.T) {
	p, err := Parse([]byte(sampleModel))
	require.NoError(t, err)

	assert.Equal(t, "sample", p.Name)
	assert.Len(t, p.Clocks, 2)
	assert.Len(t, p.Params, 1)
	assert.Len(t, p.Locations, 2)
	assert.Equal(t, "idle", p.Initial.Label())

	require.Len(t, p.Transitions, 1)
	tr := p.Transitions[0]
	assert.Equal(t, "idle", tr.Source.Label())
	assert.Equal(t, "busy", tr.Target.Label())
	assert.Equal(t, "press", tr.Action.Name())
	require.Len(t, tr.Guards, 2)

	// x - y < 2*p + 5
	g := tr.Guards[0]
	assert.Equal(t, expr.LT, g.Rel())
	assert.Equal(t, "x", g.Clock1().Name())
	assert.Equal(t, "y", g.Clock2().Name())
	assert.True(t, g.Bound().Coeff(p.Params[0]).Equal(numeric.FromInt(2)))
	assert.True(t, g.Bound().Const().Equal(numeric.FromInt(5)))

	// Invariant of the initial location: x ≤ p, canonicalised to the
	// zero-clock-first form x0 - x ≥ -p.
	inv := p.InvariantFor(p.Initial)
	require.Len(t, inv, 1)
	assert.True(t, inv[0].Clock1().IsZero())
	assert.Equal(t, expr.GE, inv[0].Rel())
	assert.True(t, inv[0].Bound().Coeff(p.Params[0]).Equal(numeric.NegOne))

	// resets: x := 0, y := 1/2
	entries := tr.Resets.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Value.Equal(numeric.Zero))
	assert.True(t, entries[1].Value.Equal(numeric.FromRatio(1, 2)))
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no locations":     "name: m\nclocks: [x]",
		"unknown clock":    "name: m\nclocks: [x]\nlocations:\n  - name: a\ntransitions:\n  - from: a\n    to: a\n    guard: [\"z < 1\"]",
		"unknown location": "name: m\nclocks: [x]\nlocations:\n  - name: a\ntransitions:\n  - from: a\n    to: nowhere",
		"no operator":      "name: m\nclocks: [x]\nlocations:\n  - name: a\n    invariant: [\"x\"]",
		"bad reset":        "name: m\nclocks: [x]\nlocations:\n  - name: a\ntransitions:\n  - from: a\n    to: a\n    reset: [\"x = 1\"]",
		"negative reset":   "name: m\nclocks: [x]\nlocations:\n  - name: a\ntransitions:\n  - from: a\n    to: a\n    reset: [\"x := -1\"]",
		"duplicate clock":  "name: m\nclocks: [x, x]\nlocations:\n  - name: a",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%s: expected a parse error", name)
		}
	}
}

func TestParseGuardForms(t *testing.T) {
	model := `
name: forms
clocks: [x, y]
parameters: [p, q]
locations:
  - name: a
    invariant:
      - "x < 10"
      - "x <= p"
      - "x > 1/2"
      - "x >= -p + 3"
      - "x - y <= 3*q - 1"
`
	p, err := Parse([]byte(model))
	require.NoError(t, err)
	inv := p.InvariantFor(p.Initial)
	require.Len(t, inv, 5)

	// x ≥ -p + 3 canonicalises to x0 - x ≤ p - 3.
	g := inv[3]
	assert.True(t, g.Clock1().IsZero())
	assert.Equal(t, expr.LE, g.Rel())
	assert.True(t, g.Bound().Coeff(p.Params[0]).Equal(numeric.One))
	assert.True(t, g.Bound().Const().Equal(numeric.FromInt(-3)))

	// x - y ≤ 3q - 1 keeps its operand order (x allocates before y).
	g = inv[4]
	assert.Equal(t, "x", g.Clock1().Name())
	assert.True(t, g.Bound().Coeff(p.Params[1]).Equal(numeric.FromInt(3)))
	assert.True(t, g.Bound().Const().Equal(numeric.NegOne))
}
