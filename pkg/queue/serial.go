package queue

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/observability"
)

// DefaultTimeout applies to units whose options carry no deadline.
const DefaultTimeout = 30 * time.Second

// UnitOptions tunes a single queued unit.
type UnitOptions struct {
	// Timeout is the unit's deadline. Zero selects DefaultTimeout.
	// The thunk's context carries this deadline. On expiry the unit
	// settles with a TIMEOUT error and the queue advances; a thunk that
	// ignores its context keeps running, but its result is discarded.
	Timeout time.Duration

	// MaxRetries is how many times a failing thunk is re-attempted
	// before the final error surfaces. Retries share the unit's deadline.
	MaxRetries int
}

// Handle is the future settled when a queued unit completes.
type Handle struct {
	id   string
	kind string
	done chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the unit's identifier (used only for logging and hooks).
func (h *Handle) ID() string { return h.id }

// Kind returns the unit's operation kind tag.
func (h *Handle) Kind() string { return h.kind }

// Done returns a channel closed when the unit settles.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the unit settles or ctx is cancelled, and returns the
// unit's outcome.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the settled outcome. It must only be read after Done is
// closed; before that it reports nil.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) settle(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

type entry struct {
	handle *Handle
	opts   UnitOptions
	run    func(ctx context.Context) error
}

// Serial executes queued units strictly one at a time in FIFO order.
//
// The guarantee it adds on top of Go's scheduler is application-level
// mutual exclusion: the next unit's thunk does not start until the previous
// unit has settled, even when a unit parks on I/O. The shared graph state
// has no internal locking, so this ordering is load-bearing, not cosmetic.
//
// Nested enqueues made from inside a running unit append behind everything
// already queued, including units enqueued concurrently by other callers.
// A failing or timed-out unit never affects units queued after it.
type Serial struct {
	logger *log.Logger

	mu      sync.Mutex
	queue   []*entry
	current *entry
	running bool
}

// NewSerial creates an idle serial queue. A nil logger discards output.
func NewSerial(logger *log.Logger) *Serial {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Serial{logger: logger}
}

// Enqueue appends a unit and returns its handle. Execution starts
// immediately if the queue is idle.
func (s *Serial) Enqueue(kind string, opts UnitOptions, run func(ctx context.Context) error) *Handle {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	h := &Handle{
		id:   uuid.NewString(),
		kind: kind,
		done: make(chan struct{}),
	}
	e := &entry{handle: h, opts: opts, run: run}

	s.mu.Lock()
	s.queue = append(s.queue, e)
	depth := len(s.queue)
	start := !s.running
	if start {
		s.running = true
	}
	s.mu.Unlock()

	observability.Queue().OnUnitEnqueued(context.Background(), h.id, kind, depth)
	s.logger.Debug("unit enqueued", "id", h.id, "kind", kind, "depth", depth)

	if start {
		go s.drain()
	}
	return h
}

// Running reports whether a unit is currently executing.
func (s *Serial) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Len reports the number of queued-but-unsettled units, the running one
// included.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queue)
	if s.current != nil {
		n++
	}
	return n
}

// drain pops and executes units until the queue is empty. Exactly one drain
// goroutine exists while running is true.
func (s *Serial) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.current = e
		s.mu.Unlock()

		s.execute(e)

		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}
}

// execute runs one unit to settlement, honoring its deadline and retry
// budget. The thunk's context carries the unit's deadline so cooperative
// thunks can stop early, but expiry never aborts the thunk: the queue
// advances and a late result is discarded, so thunks must tolerate having
// their outcome ignored.
func (s *Serial) execute(e *entry) {
	h := e.handle
	ctx := context.Background()
	started := time.Now()

	observability.Queue().OnUnitStart(ctx, h.id, h.kind)
	s.logger.Debug("unit start", "id", h.id, "kind", h.kind)

	tctx, cancel := context.WithTimeout(context.Background(), e.opts.Timeout)
	defer cancel()

	outcome := make(chan error, 1)
	go func() {
		var err error
		for attempt := 0; ; attempt++ {
			err = runSafely(tctx, e.run)
			if err == nil || attempt >= e.opts.MaxRetries || tctx.Err() != nil {
				break
			}
			observability.Queue().OnUnitRetry(ctx, h.id, h.kind, attempt+1, err)
			s.logger.Warn("unit retry", "id", h.id, "kind", h.kind, "attempt", attempt+1, "err", err)
		}
		if err != nil {
			err = errors.Wrap(errors.ErrCodeOperation, err, "%s failed after %d attempts", h.kind, e.opts.MaxRetries+1)
		}
		outcome <- err
	}()

	timer := time.NewTimer(e.opts.Timeout)
	defer timer.Stop()

	var result error
	select {
	case result = <-outcome:
	case <-timer.C:
		result = errors.Timeout(h.kind, "deadline of %s exceeded", e.opts.Timeout)
		observability.Queue().OnUnitTimeout(ctx, h.id, h.kind, e.opts.Timeout)
		s.logger.Warn("unit timeout", "id", h.id, "kind", h.kind, "timeout", e.opts.Timeout)
	}

	h.settle(result)
	observability.Queue().OnUnitComplete(ctx, h.id, h.kind, time.Since(started), result)
	if result != nil {
		s.logger.Debug("unit failed", "id", h.id, "kind", h.kind, "err", result)
	} else {
		s.logger.Debug("unit done", "id", h.id, "kind", h.kind, "duration", time.Since(started))
	}
}

// runSafely converts a thunk panic into an error so one unit cannot take
// down the drain loop and every queued unit behind it.
func runSafely(ctx context.Context, run func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "operation panicked: %v", r)
		}
	}()
	return run(ctx)
}

// Future carries a typed result alongside a Handle.
type Future[T any] struct {
	*Handle

	mu    sync.Mutex
	value T
}

// Value returns the typed result. Valid only after Done is closed and Err
// reports nil.
func (f *Future[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Await blocks until settlement and returns the typed outcome.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if err := f.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return f.Value(), nil
}

// Submit enqueues a unit whose thunk produces a typed value.
func Submit[T any](s *Serial, kind string, opts UnitOptions, run func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{}
	f.Handle = s.Enqueue(kind, opts, func(ctx context.Context) error {
		v, err := run(ctx)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.value = v
		f.mu.Unlock()
		return nil
	})
	return f
}
