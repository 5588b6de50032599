package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/ingest"
	"github.com/foldview/foldview/pkg/queue"
)

// toggleCommand creates the toggle command for changing collapse state.
func (c *CLI) toggleCommand() *cobra.Command {
	var (
		output string
		expand bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "toggle [graph.json] [container-id...]",
		Short: "Collapse or expand containers in a graph document",
		Long: `Collapse or expand containers in a graph document.

The toggle command applies the requested collapse state through the full
pipeline (so hyperedge aggregation stays consistent) and writes the updated
document back. By default containers are collapsed; use --expand to open
them instead, or --all to affect every container.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) < 2 {
				return fmt.Errorf("no container IDs given (or use --all)")
			}
			return c.runToggle(cmd.Context(), args[0], args[1:], output, expand, all)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite the input)")
	cmd.Flags().BoolVar(&expand, "expand", false, "expand instead of collapse")
	cmd.Flags().BoolVar(&all, "all", false, "toggle every container")

	return cmd
}

// runToggle implements the toggle command.
func (c *CLI) runToggle(ctx context.Context, input string, ids []string, output string, expand, all bool) error {
	if output == "" {
		output = input
	}

	doc, err := loadDocument(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	co := c.newCoordinator(nil)
	res, err := co.Import(doc).Await(ctx)
	if err != nil {
		return err
	}

	switch {
	case all && expand:
		res, err = co.ExpandAll().Await(ctx)
	case all:
		res, err = co.CollapseAll().Await(ctx)
	default:
		toggles := make([]queue.ToggleOp, 0, len(ids))
		for _, id := range ids {
			if _, ok := co.State().Container(id); !ok {
				return fmt.Errorf("unknown container %q", id)
			}
			toggles = append(toggles, queue.ToggleOp{ContainerID: id, Collapse: !expand})
		}
		res, err = co.Do(queue.BatchToggleOp{Toggles: toggles}).Await(ctx)
	}
	if err != nil {
		return err
	}

	updated := ingest.Export(co.State())
	if err := ingest.WriteFile(updated, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Document updated")
	printFile(output)
	printFrameStats(res.Frame, false)
	return nil
}
