package queue

import (
	"time"

	"github.com/foldview/foldview/pkg/geom"
	"github.com/foldview/foldview/pkg/ingest"
	"github.com/foldview/foldview/pkg/present"
)

// Operation kind tags, used for logging, hooks and per-kind timeouts.
const (
	KindPipeline    = "pipeline"
	KindToggle      = "toggle"
	KindBatchToggle = "batch-toggle"
	KindImport      = "import"
	KindMove        = "move"
	KindSearch      = "search"
)

// Op is the closed set of operations the coordinator accepts. Each variant
// carries only the fields its execution needs; there is no shared untyped
// payload.
type Op interface {
	kind() string
}

// PipelineOp runs a layout-and-render pass.
type PipelineOp struct {
	Options PipelineOptions
}

// ToggleOp collapses or expands one container, then re-runs the pipeline
// for that container only.
type ToggleOp struct {
	ContainerID string
	Collapse    bool
}

// BatchToggleOp applies several toggles atomically in one unit, then
// re-runs the pipeline once for the affected set.
type BatchToggleOp struct {
	Toggles []ToggleOp
}

// ImportOp feeds a parsed document through the CRUD surface and re-runs the
// full pipeline.
type ImportOp struct {
	Doc ingest.Document
}

// MoveOp stores a user-dragged position. Position is parent-relative, as
// the presentation layer reports it.
type MoveOp struct {
	ID       string
	Position geom.Point
}

// SearchOp recomputes the highlight set and re-renders without relayout.
// An empty query clears the highlight.
type SearchOp struct {
	Query string
}

func (PipelineOp) kind() string    { return KindPipeline }
func (ToggleOp) kind() string      { return KindToggle }
func (BatchToggleOp) kind() string { return KindBatchToggle }
func (ImportOp) kind() string      { return KindImport }
func (MoveOp) kind() string        { return KindMove }
func (SearchOp) kind() string      { return KindSearch }

// PipelineOptions tunes one layout-and-render pass.
type PipelineOptions struct {
	// RelayoutIDs hints which entities changed. An empty hint allows the
	// pass to skip layout entirely when the state version is unchanged
	// since the last pass; a non-empty hint always lays out. The skip is
	// purely an optimization - disabling it via Force never changes the
	// produced frame.
	RelayoutIDs []string

	// FitView requests viewport-fit parameters with the result.
	FitView bool

	// Force defeats the layout-skip optimization.
	Force bool
}

// FitViewPlan carries viewport-fit parameters, scaled down for large
// graphs so fitting stays cheap.
type FitViewPlan struct {
	Padding  float64
	Duration time.Duration
}

// PipelineResult is the outcome of one pipeline pass.
type PipelineResult struct {
	Frame present.Frame

	// Fit is nil when fitting was not requested or there were zero
	// visible nodes.
	Fit *FitViewPlan

	// LayoutSkipped reports that the pass reused the previous layout.
	LayoutSkipped bool
}

// Config tunes the coordinator. The zero value is not usable - start from
// DefaultConfig.
type Config struct {
	PipelineTimeout time.Duration
	ToggleTimeout   time.Duration
	ImportTimeout   time.Duration
	MoveTimeout     time.Duration
	SearchTimeout   time.Duration

	// PipelineRetries re-attempts failed layout passes. Toggling and
	// imports mutate state and are never retried implicitly.
	PipelineRetries int

	// FitViewThreshold is the visible-node count beyond which fit-view
	// cost is reduced.
	FitViewThreshold int

	FitViewPadding         float64
	FitViewReducedPadding  float64
	FitViewDuration        time.Duration
	FitViewReducedDuration time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		PipelineTimeout:        30 * time.Second,
		ToggleTimeout:          10 * time.Second,
		ImportTimeout:          30 * time.Second,
		MoveTimeout:            5 * time.Second,
		SearchTimeout:          5 * time.Second,
		PipelineRetries:        1,
		FitViewThreshold:       200,
		FitViewPadding:         48,
		FitViewReducedPadding:  16,
		FitViewDuration:        400 * time.Millisecond,
		FitViewReducedDuration: 120 * time.Millisecond,
	}
}

// timeoutFor maps an operation kind to its configured deadline.
func (c Config) timeoutFor(kind string) time.Duration {
	switch kind {
	case KindPipeline:
		return c.PipelineTimeout
	case KindToggle, KindBatchToggle:
		return c.ToggleTimeout
	case KindImport:
		return c.ImportTimeout
	case KindMove:
		return c.MoveTimeout
	case KindSearch:
		return c.SearchTimeout
	default:
		return DefaultTimeout
	}
}
