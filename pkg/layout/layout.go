// Package layout defines the boundary to the hierarchical graph layout
// engine and provides a built-in deterministic layered implementation.
//
// The engine consumes a plain nested node/edge graph - IDs, requested
// sizes, container nesting - and returns absolute per-element positions and
// sizes. It knows nothing about hidden flags, hyperedge bookkeeping or the
// operation queue; the coordinator exports the current visible graph with
// [BuildGraph] and writes the result back into the state's layout slots.
package layout

import (
	"context"

	"github.com/foldview/foldview/pkg/geom"
	"github.com/foldview/foldview/pkg/graphstate"
)

// Node is one element of the layout input. Containers carry their visible
// children nested; leaves have no children.
type Node struct {
	ID       string
	Size     geom.Size // requested size; zero means "use engine default"
	Children []Node
}

// Edge is one connection of the layout input. Source and Target reference
// node IDs anywhere in the nesting.
type Edge struct {
	ID     string
	Source string
	Target string
}

// Graph is the layout input: the top-level elements (with children nested)
// and every edge between visible elements, hyperedges included.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Empty reports whether the graph has no elements at all.
func (g Graph) Empty() bool { return len(g.Nodes) == 0 }

// Result is the layout output: absolute geometry per element ID, plus the
// bounding size of the whole drawing for viewport fitting.
type Result struct {
	Rects  map[string]geom.Rect
	Bounds geom.Size
}

// Engine computes positions and sizes for a hierarchical graph.
// Implementations must be deterministic for identical input and must not
// retain references to the input after returning.
type Engine interface {
	Compute(ctx context.Context, g Graph) (Result, error)
}

// BuildGraph exports the current visible graph from the state engine in the
// engine's input format. Visible edges and hyperedges both become plain
// layout edges; collapsed containers appear as leaves.
func BuildGraph(st *graphstate.State) Graph {
	roots := make([]Node, 0)
	for _, c := range st.VisibleContainers() {
		if _, nested := st.ContainerOf(c.ID); nested {
			continue
		}
		roots = append(roots, buildContainerNode(st, c))
	}
	for _, n := range st.VisibleNodes() {
		if _, nested := st.ContainerOf(n.ID); nested {
			continue // emitted through the parent container's subtree
		}
		roots = append(roots, Node{ID: n.ID, Size: sizeOf(n.Size)})
	}

	var edges []Edge
	for _, e := range st.VisibleEdges() {
		edges = append(edges, Edge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	for _, h := range st.AggregatedEdges() {
		edges = append(edges, Edge{ID: h.ID, Source: h.Source, Target: h.Target})
	}

	return Graph{Nodes: roots, Edges: edges}
}

func buildContainerNode(st *graphstate.State, c graphstate.Container) Node {
	out := Node{ID: c.ID, Size: sizeOf(c.Size)}
	if c.Collapsed {
		return out // collapsed containers lay out as leaves
	}
	for _, child := range c.Children {
		if cc, ok := st.Container(child); ok && st.ContainerVisible(child) {
			out.Children = append(out.Children, buildContainerNode(st, cc))
		} else if n, ok := st.Node(child); ok && st.NodeVisible(child) {
			out.Children = append(out.Children, Node{ID: n.ID, Size: sizeOf(n.Size)})
		}
	}
	return out
}

func sizeOf(s *geom.Size) geom.Size {
	if s == nil {
		return geom.Size{}
	}
	return *s
}
