package graphstate

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// Hyperedge aggregation. On every structural transition the whole
// aggregation is recomputed from scratch: walk all edges, resolve each
// endpoint to its nearest visible ancestor, and group boundary edges (those
// whose resolved endpoints differ from each other and from at least one raw
// endpoint) by their resolved (source, target) pair. Recomputing instead of
// patching makes the transition idempotent - collapsing a container that is
// already collapsed, or repeating any transition, always reproduces the
// exact same hyperedge set, including byte-identical IDs.

// EdgeDisposition classifies where an edge currently lives.
type EdgeDisposition int

const (
	// EdgeVisibleDirect - the edge renders as itself.
	EdgeVisibleDirect EdgeDisposition = iota
	// EdgeAggregated - the edge is represented by exactly one hyperedge.
	EdgeAggregated
	// EdgeSuppressed - the edge is hidden, touches a hidden node, sits
	// fully inside one collapsed subtree, or has an unresolvable
	// endpoint; it renders nowhere.
	EdgeSuppressed
)

// AggregatedEdges returns the current hyperedges, sorted by ID.
func (s *State) AggregatedEdges() []HyperEdge {
	out := make([]HyperEdge, 0, len(s.hyper))
	for _, h := range s.hyper {
		cp := *h
		cp.EdgeIDs = slices.Clone(h.EdgeIDs)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b HyperEdge) int { return compareID(a.ID, b.ID) })
	return out
}

// Disposition classifies an edge as directly visible, aggregated into a
// hyperedge, or suppressed. Unknown IDs report EdgeSuppressed.
func (s *State) Disposition(edgeID string) EdgeDisposition {
	if s.EdgeVisible(edgeID) {
		return EdgeVisibleDirect
	}
	for _, h := range s.hyper {
		if slices.Contains(h.EdgeIDs, edgeID) {
			return EdgeAggregated
		}
	}
	return EdgeSuppressed
}

// recomputeAggregation rebuilds the hyperedge set from the full edge arena.
func (s *State) recomputeAggregation() {
	type group struct {
		source, target string
		edgeIDs        []string
	}
	groups := make(map[[2]string]*group)
	causes := make(map[string]string)

	for id, e := range s.edges {
		if e.Hidden {
			continue
		}
		if s.nodeHidden(e.Source) || s.nodeHidden(e.Target) {
			// Hiding a node suppresses its edges outright; only
			// container state routes edges into hyperedges.
			continue
		}
		src, srcBy := s.nearestVisibleAncestor(e.Source)
		dst, dstBy := s.nearestVisibleAncestor(e.Target)
		if src == "" || dst == "" {
			continue // endpoint unresolvable, nothing to show
		}
		if src == e.Source && dst == e.Target {
			continue // plain visible edge
		}
		if src == dst {
			continue // fully inside one collapsed subtree
		}

		key := [2]string{src, dst}
		g, ok := groups[key]
		if !ok {
			g = &group{source: src, target: dst}
			groups[key] = g
		}
		g.edgeIDs = append(g.edgeIDs, id)
		if src != e.Source && srcBy != "" {
			causes[id] = srcBy
		} else {
			causes[id] = dstBy
		}
	}

	s.hyper = make(map[string]*HyperEdge, len(groups))
	for _, g := range groups {
		slices.Sort(g.edgeIDs)
		h := &HyperEdge{
			ID:      hyperEdgeID(g.edgeIDs),
			Source:  g.source,
			Target:  g.target,
			EdgeIDs: g.edgeIDs,
			// The cause of the lexicographically first member keeps
			// the derived record independent of map iteration order.
			CollapsedBy: causes[g.edgeIDs[0]],
		}
		s.hyper[h.ID] = h
	}
}

// nodeHidden reports whether id names a node with its Hidden flag set.
func (s *State) nodeHidden(id string) bool {
	n, ok := s.nodes[id]
	return ok && n.Hidden
}

// hyperEdgeID derives a stable identifier from the sorted set of aggregated
// edge IDs. Equivalent states always produce byte-identical IDs, which the
// layout and presentation bridges rely on for their own caching.
func hyperEdgeID(sortedEdgeIDs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(sortedEdgeIDs, "\x1f")))
	return "h:" + hex.EncodeToString(sum[:8])
}
