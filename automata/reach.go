package automata

import (
	"fmt"

	"github.com/parzone/parzone/analysis/expr"
	"github.com/parzone/parzone/analysis/zones"
	"github.com/parzone/parzone/utils"
	"github.com/parzone/parzone/utils/hmap"
	i "github.com/parzone/parzone/utils/indenter"
	"github.com/parzone/parzone/utils/worklist"

	log "github.com/sirupsen/logrus"
)

// SymbolicState is a node of the symbolic state space: a control location
// paired with a constrained zone.
type SymbolicState struct {
	Loc  Location
	Zone *zones.CPDBM
}

func (s *SymbolicState) Hash() uint32 {
	return utils.HashCombine(s.Loc.Hash(), s.Zone.Hash())
}

func (s *SymbolicState) Equal(o *SymbolicState) bool {
	return s.Loc.Equal(o.Loc) && s.Zone.Equal(o.Zone)
}

func (s *SymbolicState) String() string {
	// The zone renders through the shared indenter buffer; materialize it
	// before starting our own frame.
	zone := s.Zone.String()
	return i.Indenter().Start("⟨").NestStringsSep(",",
		"loc: "+s.Loc.String(),
		zone,
	).End("⟩")
}

// Edge records which transition produced a successor state.
type Edge struct {
	From, To *SymbolicState
	Action   Action
}

// Graph is the explored fragment of the symbolic state space.
type Graph struct {
	PTA       *PTA
	States    []*SymbolicState
	Edges     []Edge
	Truncated bool
}

// Explore computes the reachable symbolic state space of the PTA,
// breadth-first, deduplicating states by structural equality. A positive
// bound caps the number of expanded states; exceeding it marks the graph
// truncated.
func Explore(p *PTA, o zones.Oracle, bound int) *Graph {
	g := &Graph{PTA: p}
	seen := hmap.NewMap[bool](utils.MapHasher[*SymbolicState]())

	w := worklist.Empty[*SymbolicState]()
	for _, s := range initialStates(p, o) {
		w.Add(s)
	}

	for !w.IsEmpty() {
		cur := w.GetNext()
		if seen.Get(cur) {
			continue
		}
		seen.Set(cur, true)

		if bound > 0 && len(g.States) >= bound {
			g.Truncated = true
			log.WithField("bound", bound).Warn("state bound reached; exploration truncated")
			break
		}
		g.States = append(g.States, cur)
		log.WithFields(log.Fields{
			"location": cur.Loc.Label(),
			"states":   len(g.States),
		}).Debug("expanding symbolic state")

		for _, t := range p.Outgoing(cur.Loc) {
			for _, succ := range successors(p, cur, t, o) {
				g.Edges = append(g.Edges, Edge{cur, succ, t.Action})
				if !seen.Get(succ) {
					w.Add(succ)
				}
			}
		}
	}
	return g
}

// initialStates seeds the zones c ≥ 0 at the initial location and applies
// its invariant.
func initialStates(p *PTA, o zones.Oracle) []*SymbolicState {
	zs := zones.CreateInitial(p.Clocks, expr.True, o)
	zs = applyGuards(zs, p.InvariantFor(p.Initial), o)

	states := make([]*SymbolicState, 0, len(zs))
	for _, z := range zs {
		states = append(states, &SymbolicState{p.Initial, z})
	}
	return states
}

// successors runs one transition against a symbolic state: guards, resets,
// delay, canonicalisation, target invariant. Empty zones fall out along
// the way.
func successors(p *PTA, cur *SymbolicState, t Transition, o zones.Oracle) []*SymbolicState {
	zs := applyGuards([]*zones.CPDBM{cur.Zone}, t.Guards, o)

	next := []*zones.CPDBM{}
	for _, z := range zs {
		// Reset and delay compose before a single canonicalisation.
		next = append(next, z.Reset(t.Resets).Delay().Canonical(o)...)
	}
	next = applyGuards(next, p.InvariantFor(t.Target), o)

	states := make([]*SymbolicState, 0, len(next))
	for _, z := range zones.Dedup(next) {
		states = append(states, &SymbolicState{t.Target, z})
	}
	return states
}

func applyGuards(zs []*zones.CPDBM, guards []zones.AtomicGuard, o zones.Oracle) []*zones.CPDBM {
	for _, g := range guards {
		next := []*zones.CPDBM{}
		for _, z := range zs {
			next = append(next, z.AddGuardAndCanonical(g, o)...)
		}
		zs = zones.Dedup(next)
	}
	return zs
}

// Summary renders a one-line account of the exploration.
func (g *Graph) Summary() string {
	suffix := ""
	if g.Truncated {
		suffix = " (truncated)"
	}
	return fmt.Sprintf("%d symbolic states, %d edges%s", len(g.States), len(g.Edges), suffix)
}
