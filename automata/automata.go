// Package automata models Parametric Timed Automata and drives the
// symbolic reachability analysis over the zone engine.
package automata

import (
	"fmt"
	"sync/atomic"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/zones"
	u "github.com/parzone/parzone/utils"

	c "github.com/fatih/color"
)

var colorize = struct {
	Location func(...interface{}) string
	Action   func(...interface{}) string
}{
	Location: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiGreen).SprintFunc())(is...)
	},
	Action: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiBlue).SprintFunc())(is...)
	},
}

// Location is a control location of a PTA, interned with a process-wide
// allocator like clocks and parameters.
type Location struct {
	id    uint32
	label string
}

var locationCounter uint32

// NewLocation allocates a fresh control location.
func NewLocation(label string) Location {
	id := atomic.AddUint32(&locationCounter, 1)
	if label == "" {
		label = fmt.Sprintf("q%d", id)
	}
	return Location{id, label}
}

func (l Location) Label() string {
	return l.label
}

func (l Location) Equal(o Location) bool {
	return l.id == o.id
}

func (l Location) Hash() uint32 {
	return u.HashCombine(0x10c, l.id)
}

func (l Location) String() string {
	return colorize.Location(l.label)
}

// Action labels a transition.
type Action struct {
	name string
}

func NewAction(name string) Action {
	return Action{name}
}

func (a Action) Name() string {
	return a.name
}

func (a Action) String() string {
	return colorize.Action(a.name)
}

// Transition is a guarded, resetting edge between two locations.
type Transition struct {
	Source Location
	Target Location
	Action Action
	Guards []zones.AtomicGuard
	Resets zones.ResetSet
}

func (t Transition) String() string {
	return fmt.Sprintf("%s --%s--> %s", t.Source, t.Action, t.Target)
}

// PTA is a parametric timed automaton: finite control over locations with
// clock-difference guards, resets and per-location invariants.
type PTA struct {
	Name        string
	Locations   []Location
	Initial     Location
	Transitions []Transition
	Invariants  map[Location][]zones.AtomicGuard
	Clocks      []defs.Clock
	Params      []defs.Parameter
}

// InvariantFor returns the invariant guards of a location, nil when
// unconstrained.
func (p *PTA) InvariantFor(l Location) []zones.AtomicGuard {
	return p.Invariants[l]
}

// Outgoing returns the transitions leaving l.
func (p *PTA) Outgoing(l Location) (ts []Transition) {
	for _, t := range p.Transitions {
		if t.Source.Equal(l) {
			ts = append(ts, t)
		}
	}
	return
}

func (p *PTA) String() string {
	return fmt.Sprintf("PTA(%s: %d locations, %d transitions, %d clocks, %d parameters)",
		p.Name, len(p.Locations), len(p.Transitions), len(p.Clocks), len(p.Params))
}
