package graphstate

import (
	"slices"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/geom"
)

// State is the authoritative in-memory model of a hierarchically grouped
// node-link graph. Entities live in arenas keyed by ID; parent/child
// structure is carried exclusively by container children sets, mirrored into
// a reverse index so child-to-container lookups are O(1).
//
// All methods are synchronous and never suspend. State has no internal
// locking: callers must serialize access, which the operation queue in
// pkg/queue does by construction. The structural invariants around
// hyperedges are self-healing - every mutation that can affect them triggers
// a full recompute, so the model never throws for staleness it can repair.
type State struct {
	nodes      map[string]*Node
	edges      map[string]*Edge
	containers map[string]*Container

	// parentOf maps a child (node or container) ID to its container ID.
	// Maintained on every children-set change.
	parentOf map[string]string

	// hyper holds the current aggregation result, keyed by hyperedge ID.
	hyper map[string]*HyperEdge

	// layouts holds computed geometry per entity ID, distinct from the
	// entity's own requested Position/Size. Writing a layout slot does
	// not bump the version counter.
	layouts map[string]geom.Rect

	// version increases on every structural mutation. The coordinator
	// compares it across pipeline runs to skip redundant layout passes.
	version uint64
}

// New creates an empty State.
func New() *State {
	return &State{
		nodes:      make(map[string]*Node),
		edges:      make(map[string]*Edge),
		containers: make(map[string]*Container),
		parentOf:   make(map[string]string),
		hyper:      make(map[string]*HyperEdge),
		layouts:    make(map[string]geom.Rect),
	}
}

// Version returns the structural mutation counter. It increases
// monotonically; equal values across two observations mean no structural
// change happened in between.
func (s *State) Version() uint64 { return s.version }

// mutated records a structural change: it bumps the version counter and
// recomputes the hyperedge aggregation so derived state is never stale.
func (s *State) mutated() {
	s.version++
	s.recomputeAggregation()
}

// =============================================================================
// Node CRUD
// =============================================================================

// AddNode validates and stores a node. Adding an ID that already exists
// overwrites the stored node in place.
func (s *State) AddNode(n Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	cp := n
	cp.Tags = slices.Clone(n.Tags)
	s.nodes[n.ID] = &cp
	s.mutated()
	return nil
}

// UpdateNode is AddNode with upsert semantics made explicit at call sites.
func (s *State) UpdateNode(n Node) error { return s.AddNode(n) }

// RemoveNode deletes a node and detaches it from its container.
// Removing an unknown ID is a no-op. Edges referencing the node are kept;
// they drop out of the visible set until the endpoint reappears.
func (s *State) RemoveNode(id string) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	delete(s.nodes, id)
	s.detachChild(id)
	delete(s.layouts, id)
	s.mutated()
}

// Node returns a copy of the stored node.
func (s *State) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all stored nodes, sorted by ID.
func (s *State) Nodes() []Node {
	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b Node) int { return compareID(a.ID, b.ID) })
	return out
}

// =============================================================================
// Edge CRUD
// =============================================================================

// AddEdge validates and stores an edge. Adding an ID that already exists
// overwrites the stored edge in place.
func (s *State) AddEdge(e Edge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	cp := e
	cp.Tags = slices.Clone(e.Tags)
	s.edges[e.ID] = &cp
	s.mutated()
	return nil
}

// UpdateEdge is AddEdge with upsert semantics made explicit at call sites.
func (s *State) UpdateEdge(e Edge) error { return s.AddEdge(e) }

// RemoveEdge deletes an edge. Removing an unknown ID is a no-op.
func (s *State) RemoveEdge(id string) {
	if _, ok := s.edges[id]; !ok {
		return
	}
	delete(s.edges, id)
	s.mutated()
}

// Edge returns a copy of the stored edge.
func (s *State) Edge(id string) (Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Edges returns copies of all stored edges, sorted by ID.
func (s *State) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Edge) int { return compareID(a.ID, b.ID) })
	return out
}

// =============================================================================
// Container CRUD
// =============================================================================

// AddContainer validates and stores a container, reindexing its children
// set. Adding an ID that already exists overwrites in place; children
// previously attached to the old definition are detached first. Children
// already attached to another container are moved. A child that is a
// transitive ancestor of the container is rejected, which keeps containment
// acyclic by construction.
func (s *State) AddContainer(c Container) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, child := range c.Children {
		if s.isAncestor(child, c.ID) {
			return errors.Validation("children", "child %s is an ancestor of container %s", child, c.ID)
		}
	}

	if old, ok := s.containers[c.ID]; ok {
		for _, child := range old.Children {
			if s.parentOf[child] == c.ID {
				delete(s.parentOf, child)
			}
		}
	}

	cp := c
	cp.Children = dedupe(c.Children)
	s.containers[c.ID] = &cp
	for _, child := range cp.Children {
		s.reattachChild(child, c.ID)
	}
	s.mutated()
	return nil
}

// UpdateContainer is AddContainer with upsert semantics made explicit at
// call sites.
func (s *State) UpdateContainer(c Container) error { return s.AddContainer(c) }

// RemoveContainer deletes a container. Its children become roots (or stay
// wherever another container later claims them). Removing an unknown ID is
// a no-op.
func (s *State) RemoveContainer(id string) {
	c, ok := s.containers[id]
	if !ok {
		return
	}
	for _, child := range c.Children {
		if s.parentOf[child] == id {
			delete(s.parentOf, child)
		}
	}
	delete(s.containers, id)
	s.detachChild(id)
	delete(s.layouts, id)
	s.mutated()
}

// Container returns a copy of the stored container.
func (s *State) Container(id string) (Container, bool) {
	c, ok := s.containers[id]
	if !ok {
		return Container{}, false
	}
	cp := *c
	cp.Children = slices.Clone(c.Children)
	return cp, true
}

// Containers returns copies of all stored containers, sorted by ID.
func (s *State) Containers() []Container {
	out := make([]Container, 0, len(s.containers))
	for _, c := range s.containers {
		cp := *c
		cp.Children = slices.Clone(c.Children)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b Container) int { return compareID(a.ID, b.ID) })
	return out
}

// ContainerOf returns the ID of the container directly holding the given
// node or container. The reverse index makes this O(1).
func (s *State) ContainerOf(id string) (string, bool) {
	p, ok := s.parentOf[id]
	return p, ok
}

// =============================================================================
// Collapse / expand
// =============================================================================

// CollapseContainer marks a container collapsed and recomputes the
// hyperedge aggregation. Collapsing an already-collapsed or unknown
// container is a no-op. Returns whether the state changed.
func (s *State) CollapseContainer(id string) bool {
	c, ok := s.containers[id]
	if !ok || c.Collapsed {
		return false
	}
	c.Collapsed = true
	s.mutated()
	return true
}

// ExpandContainer clears a container's collapsed flag and recomputes the
// hyperedge aggregation. Edges released by the expansion are re-evaluated
// against the new ancestor chain and may immediately re-aggregate under a
// still-collapsed ancestor. Expanding an already-expanded or unknown
// container is a no-op. Returns whether the state changed.
func (s *State) ExpandContainer(id string) bool {
	c, ok := s.containers[id]
	if !ok || !c.Collapsed {
		return false
	}
	c.Collapsed = false
	s.mutated()
	return true
}

// =============================================================================
// Layout slots
// =============================================================================

// SetLayout stores computed geometry for an entity. Layout slots are kept
// apart from the entity's requested Position/Size and do not count as
// structural mutations.
func (s *State) SetLayout(id string, r geom.Rect) {
	s.layouts[id] = r
}

// Layout returns the computed geometry stored for an entity.
func (s *State) Layout(id string) (geom.Rect, bool) {
	r, ok := s.layouts[id]
	return r, ok
}

// ClearLayouts drops all stored layout results.
func (s *State) ClearLayouts() {
	s.layouts = make(map[string]geom.Rect)
}

// =============================================================================
// Internal index maintenance
// =============================================================================

// reattachChild points the reverse index at parent, removing the child from
// any container that previously held it.
func (s *State) reattachChild(child, parent string) {
	if prev, ok := s.parentOf[child]; ok && prev != parent {
		if pc, ok := s.containers[prev]; ok {
			pc.Children = slices.DeleteFunc(slices.Clone(pc.Children), func(id string) bool { return id == child })
		}
	}
	s.parentOf[child] = parent
}

// detachChild removes an entity from its container's children set and the
// reverse index.
func (s *State) detachChild(id string) {
	parent, ok := s.parentOf[id]
	if !ok {
		return
	}
	if pc, ok := s.containers[parent]; ok {
		pc.Children = slices.DeleteFunc(slices.Clone(pc.Children), func(c string) bool { return c == id })
	}
	delete(s.parentOf, id)
}

// isAncestor reports whether candidate is id itself or a transitive
// ancestor of id in the containment chain.
func (s *State) isAncestor(candidate, id string) bool {
	if candidate == id {
		return true
	}
	cur := id
	for {
		p, ok := s.parentOf[cur]
		if !ok {
			return false
		}
		if p == candidate {
			return true
		}
		cur = p
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func compareID(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
