package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames cycles on stderr while a long operation runs.
var spinnerFrames = []string{"⠂", "⠒", "⠐", "⠰", "⠠", "⠤", "⠄", "⠆"}

const spinnerInterval = 90 * time.Millisecond

// Spinner animates a short status line on stderr until stopped. Stopping is
// idempotent, and cancelling the parent context wipes the line so a Ctrl-C
// never leaves a stale frame behind.
type Spinner struct {
	msg    string
	ctx    context.Context
	cancel context.CancelFunc
	halt   chan struct{}
	idle   chan struct{}
	out    sync.Mutex
}

// newSpinner animates until Stop is called.
func newSpinner(msg string) *Spinner {
	return newSpinnerWithContext(context.Background(), msg)
}

// newSpinnerWithContext additionally stops when ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, msg string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		msg:    msg,
		ctx:    sctx,
		cancel: cancel,
		halt:   make(chan struct{}),
		idle:   make(chan struct{}),
	}
}

// Start launches the animation goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.idle)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.wipe()
				return
			case <-s.halt:
				return
			case <-tick.C:
				s.out.Lock()
				fmt.Fprintf(os.Stderr, "\r%s %s",
					styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]),
					StyleDim.Render(s.msg))
				s.out.Unlock()
			}
		}
	}()
}

// Stop halts the animation and clears the status line. Safe to call more
// than once.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.halt:
	default:
		close(s.halt)
	}
	<-s.idle
	s.wipe()
}

// StopWithSuccess stops and prints msg as a success line.
func (s *Spinner) StopWithSuccess(msg string) {
	s.Stop()
	printSuccess("%s", msg)
}

// StopWithError stops and prints msg as an error line.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Cancelled reports whether the spinner's context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// wipe blanks the current line so the next print starts clean.
func (s *Spinner) wipe() {
	s.out.Lock()
	defer s.out.Unlock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
}
