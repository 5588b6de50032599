package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/ingest"
	"github.com/foldview/foldview/pkg/present"
	"github.com/foldview/foldview/pkg/queue"
)

// layoutCommand creates the layout command for computing presentation frames.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		noCache     bool
		collapse    []string
		collapseAll bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a presentation frame from a graph document",
		Long: `Compute a presentation frame from a graph document.

The layout command reads a graph document (nodes, edges, containers),
applies the requested collapse state, runs the layout pipeline, and writes
the resulting frame as JSON. The frame holds parent-relative geometry for
every visible element plus the aggregated hyperedges standing in for edges
hidden by collapsed containers.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, collapse, collapseAll)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.frame.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringSliceVar(&collapse, "collapse", nil, "container IDs to collapse before layout")
	cmd.Flags().BoolVar(&collapseAll, "collapse-all", false, "collapse every container before layout")

	return cmd
}

// runLayout implements the layout command.
func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, collapse []string, collapseAll bool) error {
	if output == "" {
		output = strings.TrimSuffix(input, ".json") + ".frame.json"
	}

	doc, err := loadDocument(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	store, err := c.newCache(noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	key, err := c.frameCacheKey(input, doc, collapse, collapseAll)
	if err != nil {
		return err
	}

	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		var frame present.Frame
		if err := json.Unmarshal(data, &frame); err == nil {
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			printSuccess("Frame written")
			printFile(output)
			printFrameStats(frame, true)
			return nil
		}
	}

	prog := newProgress(c.Logger)
	frame, err := c.computeFrame(ctx, doc, collapse, collapseAll)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Laid out %d visible elements", len(frame.Nodes)))

	data, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}
	_ = store.Set(ctx, key, data, cache.TTLLayout)

	printSuccess("Frame written")
	printFile(output)
	printFrameStats(frame, false)
	return nil
}

// computeFrame imports the document, applies collapse state, and returns
// the pipeline's final frame.
func (c *CLI) computeFrame(ctx context.Context, doc ingest.Document, collapse []string, collapseAll bool) (present.Frame, error) {
	_, frame, err := c.prepare(ctx, doc, collapse, collapseAll)
	return frame, err
}

// prepare imports the document into a fresh coordinator and applies the
// requested collapse state. The coordinator is returned for commands that
// issue further operations.
func (c *CLI) prepare(ctx context.Context, doc ingest.Document, collapse []string, collapseAll bool) (*queue.Coordinator, present.Frame, error) {
	co := c.newCoordinator(nil)

	res, err := co.Import(doc).Await(ctx)
	if err != nil {
		return nil, present.Frame{}, err
	}

	if collapseAll {
		if res, err = co.CollapseAll().Await(ctx); err != nil {
			return nil, present.Frame{}, err
		}
	}
	if len(collapse) > 0 {
		toggles := make([]queue.ToggleOp, 0, len(collapse))
		for _, id := range collapse {
			toggles = append(toggles, queue.ToggleOp{ContainerID: id, Collapse: true})
		}
		if res, err = co.Do(queue.BatchToggleOp{Toggles: toggles}).Await(ctx); err != nil {
			return nil, present.Frame{}, err
		}
	}

	return co, res.Frame, nil
}

// frameCacheKey derives the layout cache key from the document content,
// the requested collapse state, and the engine spacing. Keys are scoped per
// input document so entries stay attributable when several graphs share one
// cache directory.
func (c *CLI) frameCacheKey(input string, doc ingest.Document, collapse []string, collapseAll bool) (string, error) {
	sorted := append([]string(nil), collapse...)
	sort.Strings(sorted)

	graphHash, err := cache.HashJSON(struct {
		Doc         ingest.Document `json:"doc"`
		Collapse    []string        `json:"collapse"`
		CollapseAll bool            `json:"collapseAll"`
	}{doc, sorted, collapseAll})
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}

	return docKeyer(input).LayoutKey(graphHash, c.Config.LayoutKeyOpts()), nil
}

// docKeyer scopes cache keys to the named input document.
func docKeyer(input string) cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), "doc:"+filepath.Base(input)+":")
}

// printFrameStats prints the visible element counts for a frame.
func printFrameStats(f present.Frame, cached bool) {
	hyper := 0
	for _, e := range f.Edges {
		if e.Aggregated {
			hyper++
		}
	}
	printStats(len(f.Nodes), len(f.Edges)-hyper, hyper, cached)
}
