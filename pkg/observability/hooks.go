// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about queue execution and pipeline stages.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces per event category
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries call hooks to emit events:
//
//	observability.Queue().OnUnitStart(ctx, id, kind)
//	// ... run the unit ...
//	observability.Queue().OnUnitComplete(ctx, id, kind, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Queue Hooks
// =============================================================================

// QueueHooks receives events from the serial operation queue.
type QueueHooks interface {
	// OnUnitEnqueued records a unit entering the queue at the given depth.
	OnUnitEnqueued(ctx context.Context, id, kind string, depth int)

	// OnUnitStart records a unit starting execution.
	OnUnitStart(ctx context.Context, id, kind string)

	// OnUnitRetry records a failed attempt that will be retried.
	OnUnitRetry(ctx context.Context, id, kind string, attempt int, err error)

	// OnUnitTimeout records a unit whose deadline expired; its result is
	// discarded but the thunk may still be running.
	OnUnitTimeout(ctx context.Context, id, kind string, timeout time.Duration)

	// OnUnitComplete records a unit settling, successfully or not.
	OnUnitComplete(ctx context.Context, id, kind string, duration time.Duration, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the layout-and-render pipeline.
type PipelineHooks interface {
	// OnLayoutStart records a layout pass starting over the given number
	// of visible elements. Skipped passes report OnLayoutSkipped instead.
	OnLayoutStart(ctx context.Context, elements int)

	// OnLayoutComplete records a layout pass finishing.
	OnLayoutComplete(ctx context.Context, duration time.Duration, err error)

	// OnLayoutSkipped records the skip optimization short-circuiting a pass.
	OnLayoutSkipped(ctx context.Context, version uint64)

	// OnConvertComplete records the presentation conversion finishing.
	OnConvertComplete(ctx context.Context, nodes, edges int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopQueueHooks is a no-op implementation of QueueHooks.
type NoopQueueHooks struct{}

func (NoopQueueHooks) OnUnitEnqueued(context.Context, string, string, int)            {}
func (NoopQueueHooks) OnUnitStart(context.Context, string, string)                    {}
func (NoopQueueHooks) OnUnitRetry(context.Context, string, string, int, error)        {}
func (NoopQueueHooks) OnUnitTimeout(context.Context, string, string, time.Duration)   {}
func (NoopQueueHooks) OnUnitComplete(context.Context, string, string, time.Duration, error) {
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, time.Duration, error)      {}
func (NoopPipelineHooks) OnLayoutSkipped(context.Context, uint64)                     {}
func (NoopPipelineHooks) OnConvertComplete(context.Context, int, int, time.Duration)  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	queueHooks    QueueHooks    = NoopQueueHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	hooksMu       sync.RWMutex
)

// SetQueueHooks registers custom queue hooks.
// This should be called once at application startup before enqueuing.
func SetQueueHooks(h QueueHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queueHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// Queue returns the registered queue hooks.
func Queue() QueueHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queueHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	queueHooks = NoopQueueHooks{}
	pipelineHooks = NoopPipelineHooks{}
}
