package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/present"
)

// Output formats supported by the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output base path (extension is appended per format)
	formats     []string // output formats: "dot", "svg"
	collapse    []string // container IDs to collapse before rendering
	collapseAll bool     // collapse every container before rendering
	highlight   string   // search query; non-matching elements are dimmed
	noCache     bool     // disable artifact caching
}

// renderCommand creates the render command for producing DOT and SVG artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	var formats string

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph document as DOT or SVG",
		Long: `Render a graph document as DOT or SVG.

The render command runs the layout pipeline and emits Graphviz artifacts.
Expanded containers become clusters, collapsed containers become single
blocks, and aggregated hyperedges are drawn bold with a multiplicity label.

SVG rendering goes through Graphviz and is cached locally keyed by the
frame content, so re-rendering an unchanged graph is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formats)
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formats, "formats", "f", formatSVG, "comma-separated output formats: dot, svg")
	cmd.Flags().StringSliceVar(&opts.collapse, "collapse", nil, "container IDs to collapse before rendering")
	cmd.Flags().BoolVar(&opts.collapseAll, "collapse-all", false, "collapse every container before rendering")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "dim elements not matching this query")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// runRender implements the render command.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
	}

	wantDOT, wantSVG := false, false
	for _, f := range opts.formats {
		switch strings.TrimSpace(f) {
		case formatDOT:
			wantDOT = true
		case formatSVG:
			wantSVG = true
		default:
			return fmt.Errorf("unknown format %q (supported: dot, svg)", f)
		}
	}

	doc, err := loadDocument(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	co, frame, err := c.prepare(ctx, doc, opts.collapse, opts.collapseAll)
	if err != nil {
		return err
	}
	if opts.highlight != "" {
		res, err := co.Search(opts.highlight).Await(ctx)
		if err != nil {
			return err
		}
		frame = res.Frame
	}

	store, err := c.newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	frameHash, err := cache.HashJSON(frame)
	if err != nil {
		return fmt.Errorf("hash frame: %w", err)
	}
	keyer := docKeyer(input)

	// Graphviz is the expensive step; reuse a cached SVG when the frame
	// content is unchanged.
	svgCached := false
	if wantSVG {
		key := keyer.ArtifactKey(frameHash, cache.ArtifactKeyOpts{Format: formatSVG})
		if data, hit, err := store.Get(ctx, key); err == nil && hit {
			path := base + "." + formatSVG
			if err := os.WriteFile(path, data, 0644); err != nil {
				return err
			}
			printFile(path)
			svgCached = true
		}
	}

	var written []string
	sink := &present.DOTSink{
		SVG: wantSVG && !svgCached,
		Write: func(ext string, data []byte) error {
			if ext == formatDOT && !wantDOT {
				return nil
			}
			path := base + "." + ext
			if err := os.WriteFile(path, data, 0644); err != nil {
				return err
			}
			if ext == formatSVG {
				key := keyer.ArtifactKey(frameHash, cache.ArtifactKeyOpts{Format: formatSVG})
				_ = store.Set(ctx, key, data, cache.TTLArtifact)
			}
			written = append(written, path)
			return nil
		},
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	err = sink.Render(ctx, frame)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Render failed: %v", err))
		return err
	}
	spinner.StopWithSuccess("Rendered")

	for _, path := range written {
		printFile(path)
	}
	printFrameStats(frame, svgCached)
	return nil
}
