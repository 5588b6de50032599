package queue

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/geom"
	"github.com/foldview/foldview/pkg/graphstate"
	"github.com/foldview/foldview/pkg/ingest"
	"github.com/foldview/foldview/pkg/layout"
	"github.com/foldview/foldview/pkg/observability"
	"github.com/foldview/foldview/pkg/present"
)

// Coordinator owns the single graph state instance and funnels every
// mutating operation through one serial queue, so layout and render passes
// never race or interleave. The layout engine and renderer are injected
// interfaces; the coordinator itself performs no I/O beyond calling them.
//
// The self-tuning bookkeeping (last laid-out version, current highlight)
// lives in instance fields - never package globals - so independent
// coordinators, e.g. in tests, cannot cross-contaminate.
type Coordinator struct {
	state    *graphstate.State
	engine   layout.Engine
	renderer present.Renderer
	queue    *Serial
	logger   *log.Logger
	cfg      Config

	// mu guards the tuning fields below. The queue already serializes
	// units, but a timed-out unit's thunk may still be finishing while
	// the next unit starts, so these cannot rely on unit ordering alone.
	mu                sync.Mutex
	lastLayoutVersion uint64
	hasLaidOut        bool
	highlight         map[string]bool
	lastFrame         *present.Frame
}

// NewCoordinator wires a coordinator around a state instance. A nil engine
// selects the built-in layered engine; a nil renderer drops frames; a nil
// logger discards output.
func NewCoordinator(st *graphstate.State, engine layout.Engine, renderer present.Renderer, cfg Config, logger *log.Logger) *Coordinator {
	if engine == nil {
		engine = layout.NewLayered()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Coordinator{
		state:    st,
		engine:   engine,
		renderer: renderer,
		queue:    NewSerial(logger),
		logger:   logger,
		cfg:      cfg,
	}
}

// State exposes the coordinated state instance for read-only inspection.
// Mutating it outside a queued unit voids the coordinator's guarantees.
func (c *Coordinator) State() *graphstate.State { return c.state }

// Queue exposes the underlying serial queue, mainly for its Running and
// Len accessors.
func (c *Coordinator) Queue() *Serial { return c.queue }

// LastFrame returns the most recently rendered frame, if any.
func (c *Coordinator) LastFrame() (present.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFrame == nil {
		return present.Frame{}, false
	}
	return *c.lastFrame, true
}

// Do enqueues any operation variant and returns its typed future.
func (c *Coordinator) Do(op Op) *Future[PipelineResult] {
	switch op := op.(type) {
	case PipelineOp:
		return c.RunPipeline(op.Options)
	case ToggleOp:
		return c.toggle([]ToggleOp{op}, KindToggle)
	case BatchToggleOp:
		return c.toggle(op.Toggles, KindBatchToggle)
	case ImportOp:
		return c.Import(op.Doc)
	case MoveOp:
		return c.MoveElement(op.ID, op.Position)
	case SearchOp:
		return c.Search(op.Query)
	default:
		f := &Future[PipelineResult]{}
		f.Handle = c.queue.Enqueue("unknown", UnitOptions{Timeout: time.Second}, func(context.Context) error {
			return errors.New(errors.ErrCodeInvalidInput, "unsupported operation %T", op)
		})
		return f
	}
}

// RunPipeline enqueues a layout-and-render pass.
func (c *Coordinator) RunPipeline(opts PipelineOptions) *Future[PipelineResult] {
	return Submit(c.queue, KindPipeline,
		UnitOptions{Timeout: c.cfg.timeoutFor(KindPipeline), MaxRetries: c.cfg.PipelineRetries},
		func(ctx context.Context) (PipelineResult, error) {
			return c.runPipeline(ctx, opts)
		})
}

// CollapseContainer enqueues a collapse of one container followed by a
// pipeline pass scoped to it.
func (c *Coordinator) CollapseContainer(id string) *Future[PipelineResult] {
	return c.toggle([]ToggleOp{{ContainerID: id, Collapse: true}}, KindToggle)
}

// ExpandContainer enqueues an expansion of one container followed by a
// pipeline pass scoped to it.
func (c *Coordinator) ExpandContainer(id string) *Future[PipelineResult] {
	return c.toggle([]ToggleOp{{ContainerID: id, Collapse: false}}, KindToggle)
}

// CollapseAll enqueues a batch collapse of every container.
func (c *Coordinator) CollapseAll() *Future[PipelineResult] {
	return c.batchAll(true)
}

// ExpandAll enqueues a batch expansion of every container.
func (c *Coordinator) ExpandAll() *Future[PipelineResult] {
	return c.batchAll(false)
}

func (c *Coordinator) batchAll(collapse bool) *Future[PipelineResult] {
	var toggles []ToggleOp
	for _, ct := range c.state.Containers() {
		toggles = append(toggles, ToggleOp{ContainerID: ct.ID, Collapse: collapse})
	}
	return c.toggle(toggles, KindBatchToggle)
}

// toggle applies the given toggles and chains into a pipeline pass scoped
// to the affected containers. Both steps run inside one unit, so no other
// operation can observe the state between toggle and relayout.
func (c *Coordinator) toggle(toggles []ToggleOp, kind string) *Future[PipelineResult] {
	return Submit(c.queue, kind,
		UnitOptions{Timeout: c.cfg.timeoutFor(kind)},
		func(ctx context.Context) (PipelineResult, error) {
			var affected []string
			for _, t := range toggles {
				changed := false
				if t.Collapse {
					changed = c.state.CollapseContainer(t.ContainerID)
				} else {
					changed = c.state.ExpandContainer(t.ContainerID)
				}
				if changed {
					affected = append(affected, t.ContainerID)
				}
			}
			return c.runPipeline(ctx, PipelineOptions{RelayoutIDs: affected})
		})
}

// Import enqueues a batch document import followed by a full pipeline pass.
func (c *Coordinator) Import(doc ingest.Document) *Future[PipelineResult] {
	return Submit(c.queue, KindImport,
		UnitOptions{Timeout: c.cfg.timeoutFor(KindImport)},
		func(ctx context.Context) (PipelineResult, error) {
			if err := doc.Apply(c.state); err != nil {
				return PipelineResult{}, err
			}
			return c.runPipeline(ctx, PipelineOptions{Force: true, FitView: true})
		})
}

// MoveElement stores a user-dragged, parent-relative position back into the
// element's layout slot and re-renders without a layout pass.
func (c *Coordinator) MoveElement(id string, pos geom.Point) *Future[PipelineResult] {
	return Submit(c.queue, KindMove,
		UnitOptions{Timeout: c.cfg.timeoutFor(KindMove)},
		func(ctx context.Context) (PipelineResult, error) {
			cur, ok := c.state.Layout(id)
			if !ok {
				return PipelineResult{}, errors.New(errors.ErrCodeNotFound, "no layout stored for %s", id)
			}
			var parentRect *geom.Rect
			if p, ok := c.state.ContainerOf(id); ok {
				if pr, ok := c.state.Layout(p); ok {
					parentRect = &pr
				}
			}
			cur.Point = geom.ToLayout(pos, parentRect)
			c.state.SetLayout(id, cur)
			return c.runPipeline(ctx, PipelineOptions{})
		})
}

// Search recomputes the highlight set from a case-insensitive match over
// labels, details, types and tags, then re-renders. The graph structure is
// untouched, so the pass reuses the existing layout.
func (c *Coordinator) Search(query string) *Future[PipelineResult] {
	return Submit(c.queue, KindSearch,
		UnitOptions{Timeout: c.cfg.timeoutFor(KindSearch)},
		func(ctx context.Context) (PipelineResult, error) {
			c.mu.Lock()
			c.highlight = c.matchQuery(query)
			c.mu.Unlock()
			return c.runPipeline(ctx, PipelineOptions{})
		})
}

// matchQuery returns the highlight set, or nil for an empty query.
func (c *Coordinator) matchQuery(query string) map[string]bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil
	}
	match := func(parts ...string) bool {
		for _, p := range parts {
			if strings.Contains(strings.ToLower(p), query) {
				return true
			}
		}
		return false
	}

	hl := make(map[string]bool)
	for _, n := range c.state.Nodes() {
		if match(append([]string{n.ID, n.Label, n.Detail, n.Type}, n.Tags...)...) {
			hl[n.ID] = true
		}
	}
	for _, ct := range c.state.Containers() {
		if match(ct.ID, ct.Label) {
			hl[ct.ID] = true
		}
	}
	// An edge stays lit when both rendered endpoints are lit.
	for _, e := range c.state.VisibleEdges() {
		if hl[e.Source] && hl[e.Target] {
			hl[e.ID] = true
		}
	}
	for _, h := range c.state.AggregatedEdges() {
		if hl[h.Source] && hl[h.Target] {
			hl[h.ID] = true
		}
	}
	return hl
}

// runPipeline is the body of every pipeline pass. It executes inside a
// queued unit, so it may read and mutate state freely.
func (c *Coordinator) runPipeline(ctx context.Context, opts PipelineOptions) (PipelineResult, error) {
	var result PipelineResult

	version := c.state.Version()
	c.mu.Lock()
	skip := !opts.Force && len(opts.RelayoutIDs) == 0 && c.hasLaidOut && version == c.lastLayoutVersion
	highlight := c.highlight
	c.mu.Unlock()

	if skip {
		result.LayoutSkipped = true
		observability.Pipeline().OnLayoutSkipped(ctx, version)
		c.logger.Debug("layout skipped", "version", version)
	} else {
		g := layout.BuildGraph(c.state)
		if !g.Empty() {
			started := time.Now()
			observability.Pipeline().OnLayoutStart(ctx, len(g.Nodes))
			res, err := c.engine.Compute(ctx, g)
			observability.Pipeline().OnLayoutComplete(ctx, time.Since(started), err)
			if err != nil {
				return PipelineResult{}, err
			}
			for id, r := range res.Rects {
				c.state.SetLayout(id, r)
			}
			c.logger.Debug("layout computed",
				"elements", len(res.Rects),
				"relayout", len(opts.RelayoutIDs),
				"duration", time.Since(started))
		}
		c.mu.Lock()
		c.lastLayoutVersion = version
		c.hasLaidOut = true
		c.mu.Unlock()
	}

	started := time.Now()
	frame := present.Convert(c.state, present.Options{Highlight: highlight})
	observability.Pipeline().OnConvertComplete(ctx, len(frame.Nodes), len(frame.Edges), time.Since(started))
	result.Frame = frame

	if opts.FitView {
		result.Fit = c.fitPlan(len(c.state.VisibleNodes()))
	}

	if c.renderer != nil {
		if err := c.renderer.Render(ctx, frame); err != nil {
			return PipelineResult{}, err
		}
	}

	c.mu.Lock()
	c.lastFrame = &frame
	c.mu.Unlock()
	return result, nil
}

// fitPlan scales fit-to-view cost with graph size: past the configured
// threshold the animation shortens and the padding shrinks; with nothing
// visible there is nothing to fit.
func (c *Coordinator) fitPlan(visibleNodes int) *FitViewPlan {
	if visibleNodes == 0 {
		return nil
	}
	if visibleNodes > c.cfg.FitViewThreshold {
		return &FitViewPlan{Padding: c.cfg.FitViewReducedPadding, Duration: c.cfg.FitViewReducedDuration}
	}
	return &FitViewPlan{Padding: c.cfg.FitViewPadding, Duration: c.cfg.FitViewDuration}
}
