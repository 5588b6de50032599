// Package cli implements the foldview command-line interface.
//
// This package provides commands for importing node-link documents,
// computing collapsible layouts, rendering them as DOT or SVG artifacts,
// toggling container collapse state, and exploring graphs interactively.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute a presentation frame from a graph document
//   - render: Generate DOT or SVG visualizations
//   - toggle: Collapse or expand containers and rewrite the document
//   - view: Explore a graph interactively in the terminal
//   - cache: Manage the layout and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/buildinfo"
	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/graphstate"
	"github.com/foldview/foldview/pkg/ingest"
	"github.com/foldview/foldview/pkg/present"
	"github.com/foldview/foldview/pkg/queue"
)

// appName is the application name used for directories and display.
const appName = "foldview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and configuration
// loaded from the given path. An empty path falls back to foldview.toml in
// the working directory, and a missing file yields defaults.
func New(w io.Writer, level log.Level, configPath string) (*CLI, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &CLI{
		Logger: newLogger(w, level),
		Config: cfg,
	}, nil
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "foldview",
		Short:   "Foldview renders collapsible node-link graphs",
		Long:    `Foldview is a CLI tool for exploring hierarchical node-link graphs. Containers can be collapsed into single blocks, with the edges into their hidden interiors aggregated into weighted hyperedges.`,
		Version: buildinfo.Version,
		// main prints the final error itself, through the error code
		// stripping in pkg/errors.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.toggleCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Coordinator Factory
// =============================================================================

// newCoordinator builds a coordinator over a fresh state, with the layout
// engine and queue tuning taken from the loaded configuration.
func (c *CLI) newCoordinator(renderer present.Renderer) *queue.Coordinator {
	st := graphstate.New()
	return queue.NewCoordinator(st, c.Config.Engine(), renderer, c.Config.QueueConfig(), c.Logger)
}

// loadDocument reads a graph document from disk.
func loadDocument(path string) (ingest.Document, error) {
	return ingest.ReadFile(path)
}

// newCache creates the configured cache backend. When the cache directory
// cannot be resolved the command still runs, degraded to an in-memory cache
// that lives for the process only.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			c.Logger.Warn("cache directory unavailable, caching in memory", "err", err)
			return cache.NewMemoryCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/foldview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
