// Package graphstate owns the authoritative model of a hierarchically
// grouped node-link graph: nodes, edges and nested collapsible containers.
//
// # Overview
//
// Entities are stored in arenas keyed by ID. Containment is expressed only
// through container children sets, mirrored into a reverse index so
// [State.ContainerOf] never walks the tree. Visibility is a single
// derivation over two independent inputs - an element's own hidden flag and
// the collapsed/hidden flags of its ancestors.
//
// # Hyperedges
//
// When a container collapses, edges crossing its boundary are folded into
// synthetic hyperedges: one per resolved (source, target) pair, carrying the
// IDs of every original edge it represents. The aggregation is recomputed
// from scratch on every structural transition, which makes it idempotent and
// self-healing - the model never raises for stale derived state, only for
// malformed CRUD input (see [Node.Validate] and friends, which return
// VALIDATION errors naming the offending field).
//
// # Basic Usage
//
//	st := graphstate.New()
//	st.AddNode(graphstate.Node{ID: "a", Label: "A"})
//	st.AddNode(graphstate.Node{ID: "d", Label: "D"})
//	st.AddEdge(graphstate.Edge{ID: "e1", Source: "a", Target: "d"})
//	st.AddContainer(graphstate.Container{ID: "c1", Label: "C1", Children: []string{"a"}})
//
//	st.CollapseContainer("c1")
//	st.AggregatedEdges() // one hyperedge c1 -> d representing e1
//	st.ExpandContainer("c1")
//	st.VisibleEdges() // e1 is a plain visible edge again
//
// # Concurrency
//
// State has no internal locking and its methods never suspend. All mutation
// must be serialized by the caller; the operation queue in
// github.com/foldview/foldview/pkg/queue provides that guarantee for the
// rest of the system.
package graphstate
