package present

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/foldview/foldview/pkg/geom"
	"github.com/foldview/foldview/pkg/graphstate"
)

// buildState creates nodes a, b, d (a and b inside container c1) with edges
// a->d and b->d, and assigns absolute layout rects.
func buildState(t *testing.T) *graphstate.State {
	t.Helper()
	st := graphstate.New()
	for _, n := range []graphstate.Node{
		{ID: "a", Label: "A", Detail: "svc"},
		{ID: "b", Label: "B"},
		{ID: "d", Label: "D"},
	} {
		if err := st.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graphstate.Edge{
		{ID: "e1", Source: "a", Target: "d"},
		{ID: "e2", Source: "b", Target: "d"},
	} {
		if err := st.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.AddContainer(graphstate.Container{ID: "c1", Label: "C1", Children: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	st.SetLayout("c1", geom.Rect{Point: geom.Point{X: 10, Y: 20}, Size: geom.Size{Width: 400, Height: 200}})
	st.SetLayout("a", geom.Rect{Point: geom.Point{X: 34, Y: 72}, Size: geom.Size{Width: 160, Height: 48}})
	st.SetLayout("b", geom.Rect{Point: geom.Point{X: 214, Y: 72}, Size: geom.Size{Width: 160, Height: 48}})
	st.SetLayout("d", geom.Rect{Point: geom.Point{X: 130, Y: 300}, Size: geom.Size{Width: 160, Height: 48}})
	return st
}

func frameNode(t *testing.T, f Frame, id string) FrameNode {
	t.Helper()
	for _, n := range f.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not in frame", id)
	return FrameNode{}
}

func frameEdge(t *testing.T, f Frame, id string) FrameEdge {
	t.Helper()
	for _, e := range f.Edges {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("edge %s not in frame", id)
	return FrameEdge{}
}

func TestConvertDeterministic(t *testing.T) {
	st := buildState(t)
	f1 := Convert(st, Options{})
	f2 := Convert(st, Options{})

	if !reflect.DeepEqual(f1, f2) {
		t.Error("converting unchanged state twice produced different frames")
	}
	for i := 1; i < len(f1.Nodes); i++ {
		if f1.Nodes[i-1].ID >= f1.Nodes[i].ID {
			t.Fatalf("nodes not sorted by ID: %s before %s", f1.Nodes[i-1].ID, f1.Nodes[i].ID)
		}
	}
	for i := 1; i < len(f1.Edges); i++ {
		if f1.Edges[i-1].ID >= f1.Edges[i].ID {
			t.Fatalf("edges not sorted by ID: %s before %s", f1.Edges[i-1].ID, f1.Edges[i].ID)
		}
	}
}

func TestConvertParentRelativePositions(t *testing.T) {
	f := Convert(buildState(t), Options{})

	a := frameNode(t, f, "a")
	if a.Parent != "c1" {
		t.Fatalf("a.Parent = %q, want c1", a.Parent)
	}
	if a.Position != (geom.Point{X: 24, Y: 52}) {
		t.Errorf("a.Position = %v, want parent-relative {24 52}", a.Position)
	}

	// Top-level elements keep absolute coordinates.
	d := frameNode(t, f, "d")
	if d.Parent != "" || d.Position != (geom.Point{X: 130, Y: 300}) {
		t.Errorf("d = parent %q position %v, want top-level absolute", d.Parent, d.Position)
	}

	c1 := frameNode(t, f, "c1")
	if !c1.Container || c1.Collapsed {
		t.Errorf("c1 flags = container %v collapsed %v", c1.Container, c1.Collapsed)
	}
}

func TestConvertAnchors(t *testing.T) {
	f := Convert(buildState(t), Options{})

	// d sits below a, so the dominant direction is vertical.
	e1 := frameEdge(t, f, "e1")
	if e1.SourceAnchor != AnchorBottom || e1.TargetAnchor != AnchorTop {
		t.Errorf("vertical edge anchors = %s/%s, want bottom/top", e1.SourceAnchor, e1.TargetAnchor)
	}

	st := buildState(t)
	st.SetLayout("d", geom.Rect{Point: geom.Point{X: 600, Y: 72}, Size: geom.Size{Width: 160, Height: 48}})
	e1 = frameEdge(t, Convert(st, Options{}), "e1")
	if e1.SourceAnchor != AnchorRight || e1.TargetAnchor != AnchorLeft {
		t.Errorf("horizontal edge anchors = %s/%s, want right/left", e1.SourceAnchor, e1.TargetAnchor)
	}
}

func TestConvertHighlight(t *testing.T) {
	st := buildState(t)

	f := Convert(st, Options{})
	if frameNode(t, f, "b").Dimmed {
		t.Error("nil highlight must dim nothing")
	}

	f = Convert(st, Options{Highlight: map[string]bool{"a": true, "e1": true}})
	if frameNode(t, f, "a").Dimmed || frameEdge(t, f, "e1").Dimmed {
		t.Error("highlighted elements must not be dimmed")
	}
	if !frameNode(t, f, "b").Dimmed || !frameEdge(t, f, "e2").Dimmed {
		t.Error("elements outside the highlight set must be dimmed")
	}
}

func TestConvertCollapsed(t *testing.T) {
	st := buildState(t)
	st.CollapseContainer("c1")
	f := Convert(st, Options{})

	for _, n := range f.Nodes {
		if n.ID == "a" || n.ID == "b" {
			t.Errorf("subsumed node %s leaked into the frame", n.ID)
		}
	}
	if c1 := frameNode(t, f, "c1"); !c1.Collapsed {
		t.Error("collapsed container not flagged")
	}
	if len(f.Edges) != 1 {
		t.Fatalf("got %d edges, want 1 hyperedge", len(f.Edges))
	}
	h := f.Edges[0]
	if !h.Aggregated || len(h.EdgeIDs) != 2 {
		t.Errorf("hyperedge = aggregated %v edgeIDs %v", h.Aggregated, h.EdgeIDs)
	}
	if h.Source != "c1" || h.Target != "d" {
		t.Errorf("hyperedge endpoints %s -> %s, want c1 -> d", h.Source, h.Target)
	}
}

func TestConvertBounds(t *testing.T) {
	f := Convert(buildState(t), Options{})
	want := geom.Size{Width: 410, Height: 348}
	if f.Bounds != want {
		t.Errorf("bounds = %v, want %v", f.Bounds, want)
	}
}

func TestToDOTExpanded(t *testing.T) {
	dot := ToDOT(Convert(buildState(t), Options{}))

	for _, want := range []string{
		"digraph G {",
		`subgraph "cluster_c1"`,
		`label="C1"`,
		`"a" [label="A\nsvc"]`,
		`"a" -> "d";`,
		`"b" -> "d";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTCollapsed(t *testing.T) {
	st := buildState(t)
	st.CollapseContainer("c1")
	dot := ToDOT(Convert(st, Options{}))

	if strings.Contains(dot, "subgraph") {
		t.Error("collapsed container must not emit a cluster")
	}
	for _, want := range []string{
		`"c1" [label="C1 (collapsed)", style="rounded,filled,bold", fillcolor=lightyellow]`,
		"style=bold",
		`label="×2"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDimmed(t *testing.T) {
	st := buildState(t)
	dot := ToDOT(Convert(st, Options{Highlight: map[string]bool{"d": true}}))

	if !strings.Contains(dot, "fontcolor=grey") {
		t.Error("dimmed nodes should carry grey styling")
	}
	if !strings.Contains(dot, "color=grey") {
		t.Error("dimmed edges should carry grey styling")
	}
}

func TestDOTSink(t *testing.T) {
	got := map[string][]byte{}
	sink := &DOTSink{Write: func(ext string, data []byte) error {
		got[ext] = data
		return nil
	}}

	if err := sink.Render(context.Background(), Convert(buildState(t), Options{})); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, ok := got["dot"]; !ok {
		t.Fatal("no DOT artifact written")
	}
	if _, ok := got["svg"]; ok {
		t.Error("SVG written without the flag")
	}
	if !strings.Contains(string(got["dot"]), "digraph G") {
		t.Error("artifact is not DOT")
	}
}
