// Package present converts the graph model's visible snapshot plus stored
// layout results into a flat, parented frame the renderer consumes, and
// provides DOT/SVG sinks for non-interactive output.
//
// Conversion is a pure function of the state: it captures no mutable fields,
// so converting unchanged input any number of times produces structurally
// identical frames. The renderer reports user gestures (toggles, drags) back
// through the operation coordinator, never through this package.
package present

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/foldview/foldview/pkg/geom"
	"github.com/foldview/foldview/pkg/graphstate"
)

// Anchor names the side of an element an edge attaches to.
type Anchor string

const (
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

// FrameNode is one positioned element of the frame. Position is relative to
// the parent container's content origin; top-level elements are relative to
// the frame origin.
type FrameNode struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Detail    string     `json:"detail,omitempty"`
	Type      string     `json:"type,omitempty"`
	Parent    string     `json:"parent,omitempty"`
	Position  geom.Point `json:"position"`
	Size      geom.Size  `json:"size"`
	Container bool       `json:"container,omitempty"`
	Collapsed bool       `json:"collapsed,omitempty"`
	Dimmed    bool       `json:"dimmed,omitempty"`
}

// FrameEdge is one rendered connection: either an original visible edge or
// a hyperedge standing in for several.
type FrameEdge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceAnchor Anchor   `json:"sourceAnchor"`
	TargetAnchor Anchor   `json:"targetAnchor"`
	Aggregated   bool     `json:"aggregated,omitempty"`
	EdgeIDs      []string `json:"edgeIds,omitempty"` // originals, for hyperedges
	Dimmed       bool     `json:"dimmed,omitempty"`
}

// Frame is the complete flattened render input.
type Frame struct {
	Nodes  []FrameNode `json:"nodes"`
	Edges  []FrameEdge `json:"edges"`
	Bounds geom.Size   `json:"bounds"`
}

// Renderer consumes frames. The interactive TUI and the file sinks both
// implement it; the coordinator only ever reaches a renderer after a
// successful layout pass, so a failed pipeline leaves the previous output
// untouched.
type Renderer interface {
	Render(ctx context.Context, f Frame) error
}

// Options tunes the conversion.
type Options struct {
	// Highlight, when non-nil, dims every element whose ID is absent.
	Highlight map[string]bool
}

// Convert builds a frame from the state's visible elements and their stored
// layout geometry. Elements without a layout slot keep zero geometry; the
// renderer decides how to treat them.
func Convert(st *graphstate.State, opts Options) Frame {
	var f Frame

	emit := func(id, label, detail, typ, parent string, container, collapsed bool) {
		abs, _ := st.Layout(id)
		var parentRect *geom.Rect
		if parent != "" {
			if pr, ok := st.Layout(parent); ok {
				parentRect = &pr
			}
		}
		f.Nodes = append(f.Nodes, FrameNode{
			ID:        id,
			Label:     label,
			Detail:    detail,
			Type:      typ,
			Parent:    parent,
			Position:  geom.ToPresentation(abs.Point, parentRect),
			Size:      abs.Size,
			Container: container,
			Collapsed: collapsed,
			Dimmed:    dimmed(opts.Highlight, id),
		})
	}

	for _, c := range st.VisibleContainers() {
		parent, _ := st.ContainerOf(c.ID)
		emit(c.ID, c.Label, "", "", parent, true, c.Collapsed)
	}
	for _, n := range st.VisibleNodes() {
		parent, _ := st.ContainerOf(n.ID)
		emit(n.ID, n.Label, n.Detail, n.Type, parent, false, false)
	}
	slices.SortFunc(f.Nodes, func(a, b FrameNode) int { return strings.Compare(a.ID, b.ID) })

	for _, e := range st.VisibleEdges() {
		sa, ta := anchors(st, e.Source, e.Target)
		f.Edges = append(f.Edges, FrameEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceAnchor: sa,
			TargetAnchor: ta,
			Dimmed:       dimmed(opts.Highlight, e.ID),
		})
	}
	for _, h := range st.AggregatedEdges() {
		sa, ta := anchors(st, h.Source, h.Target)
		f.Edges = append(f.Edges, FrameEdge{
			ID:           h.ID,
			Source:       h.Source,
			Target:       h.Target,
			SourceAnchor: sa,
			TargetAnchor: ta,
			Aggregated:   true,
			EdgeIDs:      slices.Clone(h.EdgeIDs),
			Dimmed:       dimmed(opts.Highlight, h.ID),
		})
	}
	slices.SortFunc(f.Edges, func(a, b FrameEdge) int { return strings.Compare(a.ID, b.ID) })

	f.Bounds = frameBounds(st, f.Nodes)
	return f
}

// anchors assigns edge attachment sides from the dominant direction between
// the endpoint centers: horizontal dominance attaches right-to-left (or
// left-to-right), vertical dominance bottom-to-top (or top-to-bottom). The
// two sides always face each other; an edge never arrives at the side it
// left from.
func anchors(st *graphstate.State, source, target string) (Anchor, Anchor) {
	sr, _ := st.Layout(source)
	tr, _ := st.Layout(target)
	d := tr.Center().Sub(sr.Center())
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return AnchorRight, AnchorLeft
		}
		return AnchorLeft, AnchorRight
	}
	if d.Y >= 0 {
		return AnchorBottom, AnchorTop
	}
	return AnchorTop, AnchorBottom
}

func frameBounds(st *graphstate.State, nodes []FrameNode) geom.Size {
	var maxX, maxY float64
	for _, n := range nodes {
		r, ok := st.Layout(n.ID)
		if !ok {
			continue
		}
		if x := r.X + r.Width; x > maxX {
			maxX = x
		}
		if y := r.Y + r.Height; y > maxY {
			maxY = y
		}
	}
	return geom.Size{Width: maxX, Height: maxY}
}

func dimmed(highlight map[string]bool, id string) bool {
	return highlight != nil && !highlight[id]
}
