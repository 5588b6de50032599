package layout

import (
	"context"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/foldview/foldview/pkg/geom"
)

// Default geometry for elements that declare no requested size.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 48.0
	DefaultGapX       = 40.0
	DefaultGapY       = 64.0
	DefaultPadding    = 24.0
	DefaultLabelBand  = 28.0
)

// Layered is the built-in layout engine. It arranges each nesting level as
// a Sugiyama-style layered drawing: siblings are assigned to layers by
// longest path over a stabilized topological order, then placed
// left-to-right within their layer. Containers are laid out bottom-up, so a
// container's size is the bounding box of its (already laid out) children
// plus padding and a label band.
//
// The result is deterministic: identical input always produces identical
// geometry. Layered keeps no state between calls.
type Layered struct {
	NodeWidth  float64
	NodeHeight float64
	GapX       float64 // horizontal gap between siblings in a layer
	GapY       float64 // vertical gap between layers
	Padding    float64 // container inner padding
	LabelBand  float64 // vertical space reserved for a container label
}

// NewLayered creates a layered engine with default spacing.
func NewLayered() *Layered {
	return &Layered{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		GapX:       DefaultGapX,
		GapY:       DefaultGapY,
		Padding:    DefaultPadding,
		LabelBand:  DefaultLabelBand,
	}
}

var _ Engine = (*Layered)(nil)

// Compute lays out the graph and returns absolute geometry per element.
func (l *Layered) Compute(ctx context.Context, g Graph) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// topOf maps every element to its ancestor at the level currently
	// being arranged; rebuilt per level by project.
	sizes := make(map[string]geom.Size)
	local := make(map[string]geom.Point)
	for i := range g.Nodes {
		l.measure(&g.Nodes[i], sizes, local, g.Edges)
	}

	bounds := l.arrange(g.Nodes, g.Edges, sizes, local)

	rects := make(map[string]geom.Rect, len(sizes))
	for i := range g.Nodes {
		placeAbsolute(&g.Nodes[i], geom.Point{}, l.Padding, l.LabelBand, sizes, local, rects)
	}
	return Result{Rects: rects, Bounds: bounds}, nil
}

// measure computes sizes bottom-up and local child positions per container.
func (l *Layered) measure(n *Node, sizes map[string]geom.Size, local map[string]geom.Point, edges []Edge) {
	if len(n.Children) == 0 {
		sz := n.Size
		if sz.Width == 0 {
			sz.Width = l.NodeWidth
		}
		if sz.Height == 0 {
			sz.Height = l.NodeHeight
		}
		sizes[n.ID] = sz
		return
	}

	for i := range n.Children {
		l.measure(&n.Children[i], sizes, local, edges)
	}
	content := l.arrange(n.Children, edges, sizes, local)
	sizes[n.ID] = geom.Size{
		Width:  content.Width + 2*l.Padding,
		Height: content.Height + 2*l.Padding + l.LabelBand,
	}
}

// arrange assigns layer-based local positions to the given siblings and
// returns the content bounding size. Positions are written into local,
// relative to the siblings' common origin.
func (l *Layered) arrange(siblings []Node, edges []Edge, sizes map[string]geom.Size, local map[string]geom.Point) geom.Size {
	if len(siblings) == 0 {
		return geom.Size{}
	}

	layer := l.assignLayers(siblings, edges)

	// Group siblings by layer, preserving input order (BuildGraph emits
	// elements sorted by ID, so this stays deterministic).
	maxLayer := 0
	for _, n := range siblings {
		if layer[n.ID] > maxLayer {
			maxLayer = layer[n.ID]
		}
	}
	rows := make([][]Node, maxLayer+1)
	for _, n := range siblings {
		rows[layer[n.ID]] = append(rows[layer[n.ID]], n)
	}

	var bounds geom.Size
	y := 0.0
	for _, row := range rows {
		x := 0.0
		rowHeight := 0.0
		for _, n := range row {
			sz := sizes[n.ID]
			local[n.ID] = geom.Point{X: x, Y: y}
			x += sz.Width + l.GapX
			if sz.Height > rowHeight {
				rowHeight = sz.Height
			}
		}
		if w := x - l.GapX; w > bounds.Width {
			bounds.Width = w
		}
		y += rowHeight + l.GapY
	}
	bounds.Height = y - l.GapY
	return bounds
}

// assignLayers computes a longest-path layering of the siblings from the
// edges that project onto this level. The projected sibling graph may
// contain cycles; stabilized topological sort reports the unorderable
// nodes, which simply keep the layers they had reached, so the layout
// degrades gracefully instead of failing.
func (l *Layered) assignLayers(siblings []Node, edges []Edge) map[string]int {
	// Map every descendant to its sibling-level ancestor.
	top := make(map[string]string)
	var index func(root string, n *Node)
	index = func(root string, n *Node) {
		top[n.ID] = root
		for i := range n.Children {
			index(root, &n.Children[i])
		}
	}
	ids := make([]string, 0, len(siblings))
	for i := range siblings {
		index(siblings[i].ID, &siblings[i])
		ids = append(ids, siblings[i].ID)
	}

	dg := simple.NewDirectedGraph()
	nodeID := make(map[string]int64, len(ids))
	byID := make(map[int64]string, len(ids))
	for i, id := range ids {
		nodeID[id] = int64(i)
		byID[int64(i)] = id
		dg.AddNode(simple.Node(int64(i)))
	}

	type pair struct{ from, to int64 }
	seen := make(map[pair]bool)
	for _, e := range edges {
		from, okF := top[e.Source]
		to, okT := top[e.Target]
		if !okF || !okT || from == to {
			continue
		}
		p := pair{nodeID[from], nodeID[to]}
		if seen[p] {
			continue
		}
		seen[p] = true
		dg.SetEdge(dg.NewEdge(simple.Node(p.from), simple.Node(p.to)))
	}

	order, err := topo.SortStabilized(dg, nil)
	_ = err // unorderable nodes are still present in order

	layer := make(map[string]int, len(ids))
	for _, gn := range order {
		if gn == nil {
			continue // placeholder for a cyclic component
		}
		id := byID[gn.ID()]
		best := 0
		preds := dg.To(gn.ID())
		for preds.Next() {
			pid := byID[preds.Node().ID()]
			if pl, ok := layer[pid]; ok && pl+1 > best {
				best = pl + 1
			}
		}
		layer[id] = best
	}
	// Nodes the sort dropped entirely (shouldn't happen, but cheap to
	// cover) land in layer 0.
	for _, id := range ids {
		if _, ok := layer[id]; !ok {
			layer[id] = 0
		}
	}
	return layer
}

// placeAbsolute converts local positions to absolute rects by walking the
// nesting top-down. origin is the absolute position of the parent's content
// area.
func placeAbsolute(n *Node, origin geom.Point, padding, labelBand float64, sizes map[string]geom.Size, local map[string]geom.Point, rects map[string]geom.Rect) {
	pos := origin.Add(local[n.ID])
	sz := sizes[n.ID]
	rects[n.ID] = geom.Rect{Point: pos, Size: sz}

	if len(n.Children) == 0 {
		return
	}
	content := pos.Add(geom.Point{X: padding, Y: padding + labelBand})
	for i := range n.Children {
		placeAbsolute(&n.Children[i], content, padding, labelBand, sizes, local, rects)
	}
}
