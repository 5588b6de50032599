package graphstate

import "slices"

// Visibility has exactly one derivation in the model: an element is visible
// iff it is not explicitly hidden and no ancestor container in its
// containment chain is collapsed or hidden. "Explicitly hidden" and "inside
// a collapsed ancestor" stay independent inputs to that derivation; they are
// never reconciled into a single flag.
//
// A collapsed container is itself still visible (it renders as a closed
// box); only its descendants disappear.

// NodeVisible reports whether the node exists and is visible.
func (s *State) NodeVisible(id string) bool {
	n, ok := s.nodes[id]
	if !ok || n.Hidden {
		return false
	}
	return s.ancestorsOpen(id)
}

// ContainerVisible reports whether the container exists and is visible.
func (s *State) ContainerVisible(id string) bool {
	c, ok := s.containers[id]
	if !ok || c.Hidden {
		return false
	}
	return s.ancestorsOpen(id)
}

// EdgeVisible reports whether the edge exists, is not hidden, is not
// subsumed by a hyperedge, and has two visible endpoints.
func (s *State) EdgeVisible(id string) bool {
	e, ok := s.edges[id]
	if !ok || e.Hidden {
		return false
	}
	if s.elementVisible(e.Source) && s.elementVisible(e.Target) {
		return true
	}
	return false
}

// elementVisible resolves an endpoint that may be a node or a container.
func (s *State) elementVisible(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return s.NodeVisible(id)
	}
	if _, ok := s.containers[id]; ok {
		return s.ContainerVisible(id)
	}
	return false
}

// ancestorsOpen reports whether every ancestor container of id is neither
// collapsed nor hidden. Containment is acyclic by construction, so the walk
// terminates.
func (s *State) ancestorsOpen(id string) bool {
	cur := id
	for {
		p, ok := s.parentOf[cur]
		if !ok {
			return true
		}
		pc, ok := s.containers[p]
		if !ok {
			return true
		}
		if pc.Collapsed || pc.Hidden {
			return false
		}
		cur = p
	}
}

// nearestVisibleAncestor resolves an endpoint to itself if visible, else to
// the closest visible ancestor container. It also reports the container
// whose state subsumed the endpoint: the resolved container itself when it
// is collapsed, otherwise the outermost collapsed-or-hidden container
// strictly below the resolved ancestor on the containment chain. Returns ""
// when nothing on the chain is visible.
func (s *State) nearestVisibleAncestor(id string) (resolved, subsumedBy string) {
	if s.elementVisible(id) {
		if c, ok := s.containers[id]; ok && c.Collapsed {
			// A visible collapsed container is its own resolution,
			// and the subsumer of everything routed through it.
			return id, id
		}
		return id, ""
	}

	chain := []string{id}
	cur := id
	for {
		p, ok := s.parentOf[cur]
		if !ok {
			return "", ""
		}
		chain = append(chain, p)
		if s.elementVisible(p) {
			resolved = p
			break
		}
		cur = p
	}

	if c, ok := s.containers[resolved]; ok && c.Collapsed {
		return resolved, resolved
	}
	// Scan downward from just below the resolved ancestor for the
	// outermost closed-off container. Only container state counts as a
	// subsumer; a hidden node suppresses its edges instead of routing
	// them anywhere.
	for i := len(chain) - 2; i >= 0; i-- {
		if c, ok := s.containers[chain[i]]; ok && (c.Collapsed || c.Hidden) {
			return resolved, chain[i]
		}
	}
	return resolved, ""
}

// VisibleNodes returns the visible nodes, sorted by ID.
func (s *State) VisibleNodes() []Node {
	out := make([]Node, 0, len(s.nodes))
	for id, n := range s.nodes {
		if s.NodeVisible(id) {
			out = append(out, *n)
		}
	}
	slices.SortFunc(out, func(a, b Node) int { return compareID(a.ID, b.ID) })
	return out
}

// VisibleContainers returns the visible containers, sorted by ID.
func (s *State) VisibleContainers() []Container {
	out := make([]Container, 0, len(s.containers))
	for id, c := range s.containers {
		if s.ContainerVisible(id) {
			cp := *c
			cp.Children = slices.Clone(c.Children)
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b Container) int { return compareID(a.ID, b.ID) })
	return out
}

// VisibleEdges returns the visible edges, sorted by ID. Edges subsumed by a
// hyperedge are excluded.
func (s *State) VisibleEdges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for id, e := range s.edges {
		if s.EdgeVisible(id) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b Edge) int { return compareID(a.ID, b.ID) })
	return out
}
