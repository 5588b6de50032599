package graphstate

import (
	"strings"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/geom"
)

// Node is a leaf element of the graph. The zero value is not usable - ID and
// Label must be set before adding to a State.
//
// Position and Size are the requested geometry declared by the caller (for
// example parsed from an input document). The computed geometry produced by a
// layout pass is stored separately in the state's layout slot and never
// overwrites these fields.
type Node struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Detail   string      `json:"detail,omitempty"` // secondary / long label
	Type     string      `json:"type,omitempty"`
	Tags     []string    `json:"tags,omitempty"`
	Position *geom.Point `json:"position,omitempty"`
	Size     *geom.Size  `json:"size,omitempty"`
	Hidden   bool        `json:"hidden,omitempty"`
}

// Edge is a directed connection between two elements. Source and Target must
// be non-blank identifiers but are not required to name currently visible
// (or even currently existing) elements; edges whose endpoints are missing
// simply never become visible. Self-loops are permitted.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   string   `json:"type,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Hidden bool     `json:"hidden,omitempty"`
}

// Container is a collapsible grouping of nodes and/or nested containers.
// Children is a set (order carries no meaning, duplicates are removed on
// add); it is the sole source of parent/child structure in the model.
type Container struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Children  []string    `json:"children,omitempty"`
	Collapsed bool        `json:"collapsed,omitempty"`
	Hidden    bool        `json:"hidden,omitempty"`
	Position  *geom.Point `json:"position,omitempty"`
	Size      *geom.Size  `json:"size,omitempty"`
}

// HyperEdge is a derived edge standing in for one or more original edges
// that cross a collapsed container's boundary. HyperEdges are recomputed
// from scratch on every structural transition and never persisted
// independently.
type HyperEdge struct {
	// ID is derived from the sorted set of aggregated edge IDs, so two
	// recomputations from equivalent state produce byte-identical IDs.
	ID string `json:"id"`

	// Source and Target are the nearest visible ancestors of the
	// aggregated edges' raw endpoints.
	Source string `json:"source"`
	Target string `json:"target"`

	// EdgeIDs lists the original edges this hyperedge represents, sorted.
	EdgeIDs []string `json:"edgeIds"`

	// CollapsedBy is the collapsed (or hidden) container whose state
	// caused the aggregation.
	CollapsedBy string `json:"collapsedBy"`
}

// blank reports whether s is empty or whitespace-only.
func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate checks the required fields of a node.
func (n Node) Validate() error {
	if blank(n.ID) {
		return errors.Validation("id", "must not be blank")
	}
	if blank(n.Label) {
		return errors.Validation("label", "must not be blank")
	}
	return nil
}

// Validate checks the required fields of an edge.
func (e Edge) Validate() error {
	if blank(e.ID) {
		return errors.Validation("id", "must not be blank")
	}
	if blank(e.Source) {
		return errors.Validation("source", "must not be blank")
	}
	if blank(e.Target) {
		return errors.Validation("target", "must not be blank")
	}
	return nil
}

// Validate checks the required fields of a container.
func (c Container) Validate() error {
	if blank(c.ID) {
		return errors.Validation("id", "must not be blank")
	}
	if blank(c.Label) {
		return errors.Validation("label", "must not be blank")
	}
	for _, child := range c.Children {
		if blank(child) {
			return errors.Validation("children", "child id must not be blank")
		}
		if child == c.ID {
			return errors.Validation("children", "container %s cannot contain itself", c.ID)
		}
	}
	return nil
}
