package automata

import (
	"fmt"

	"github.com/parzone/parzone/utils/dot"
)

// ToDot renders the symbolic state graph for Graphviz. Node labels carry
// the control location and the parameter polyhedron of the zone; matrices
// are too wide for node labels and stay in the textual output.
func (g *Graph) ToDot() *dot.DotGraph {
	nodes := map[*SymbolicState]*dot.DotNode{}
	dg := &dot.DotGraph{
		Title:   g.PTA.Name,
		Options: map[string]string{"rankdir": "TB"},
	}

	for i, s := range g.States {
		n := &dot.DotNode{
			ID: fmt.Sprintf("s%d", i),
			Attrs: dot.DotAttrs{
				"label": fmt.Sprintf("%s\n%s", s.Loc.Label(), s.Zone.ConstraintSet().PlainString()),
			},
		}
		if s.Loc.Equal(g.PTA.Initial) {
			n.Attrs["fillcolor"] = "palegreen"
		}
		nodes[s] = n
		dg.Nodes = append(dg.Nodes, n)
	}

	for _, e := range g.Edges {
		from, okF := nodes[e.From]
		to, okT := nodes[e.To]
		if !okF || !okT {
			// Truncated exploration may have dangling edges.
			continue
		}
		dg.Edges = append(dg.Edges, &dot.DotEdge{
			From: from,
			To:   to,
			Attrs: dot.DotAttrs{
				"label": e.Action.Name(),
			},
		})
	}
	return dg
}
