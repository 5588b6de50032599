package present

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a frame to Graphviz DOT. Expanded containers become
// subgraph clusters so the nesting survives into the drawing; collapsed
// containers and hidden-subsumed structure have already been flattened away
// by the conversion, so they render as plain boxes. Hyperedges are drawn
// bold with the aggregate count in the label.
func ToDOT(f Frame) string {
	children := make(map[string][]FrameNode)
	for _, n := range f.Nodes {
		children[n.Parent] = append(children[n.Parent], n)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	var writeLevel func(parent, indent string)
	writeLevel = func(parent, indent string) {
		for _, n := range children[parent] {
			switch {
			case n.Container && !n.Collapsed:
				fmt.Fprintf(&buf, "%ssubgraph \"cluster_%s\" {\n", indent, n.ID)
				fmt.Fprintf(&buf, "%s  label=%q;\n", indent, n.Label)
				if n.Dimmed {
					fmt.Fprintf(&buf, "%s  color=lightgrey;\n", indent)
				}
				writeLevel(n.ID, indent+"  ")
				fmt.Fprintf(&buf, "%s}\n", indent)
			default:
				attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n))}
				if n.Container {
					attrs = append(attrs, "style=\"rounded,filled,bold\"", "fillcolor=lightyellow")
				}
				if n.Dimmed {
					attrs = append(attrs, "fontcolor=grey", "color=grey")
				}
				fmt.Fprintf(&buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
			}
		}
	}
	writeLevel("", "  ")

	buf.WriteString("\n")
	for _, e := range f.Edges {
		var attrs []string
		if e.Aggregated {
			attrs = append(attrs, "style=bold", fmt.Sprintf("label=\"×%d\"", len(e.EdgeIDs)))
		}
		if e.Dimmed {
			attrs = append(attrs, "color=grey")
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n FrameNode) string {
	if n.Container {
		return n.Label + " (collapsed)"
	}
	if n.Detail != "" {
		return n.Label + "\n" + n.Detail
	}
	return n.Label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// DOTSink is a Renderer writing DOT (and optionally SVG) artifacts through
// a callback, used by the CLI to place files on disk.
type DOTSink struct {
	// Write receives the artifact bytes per extension ("dot", "svg").
	Write func(ext string, data []byte) error
	// SVG also rasterizes the frame through Graphviz.
	SVG bool
}

// Render implements Renderer.
func (s *DOTSink) Render(_ context.Context, f Frame) error {
	dot := ToDOT(f)
	if err := s.Write("dot", []byte(dot)); err != nil {
		return err
	}
	if !s.SVG {
		return nil
	}
	svg, err := RenderSVG(dot)
	if err != nil {
		return err
	}
	return s.Write("svg", svg)
}

var _ Renderer = (*DOTSink)(nil)
