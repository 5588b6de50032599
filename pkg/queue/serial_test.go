package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foldview/foldview/pkg/errors"
)

func TestSerialFIFO(t *testing.T) {
	s := NewSerial(nil)

	var mu sync.Mutex
	var order []int
	var handles []*Handle
	for i := 0; i < 10; i++ {
		i := i
		handles = append(handles, s.Enqueue("test", UnitOptions{}, func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}

	for _, h := range handles {
		if err := h.Wait(t.Context()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("execution order %v, want ascending", order)
		}
	}
}

func TestSerialMutualExclusion(t *testing.T) {
	s := NewSerial(nil)

	var active, maxActive int32
	var handles []*Handle
	for i := 0; i < 8; i++ {
		handles = append(handles, s.Enqueue("test", UnitOptions{}, func(context.Context) error {
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		}))
	}

	for _, h := range handles {
		if err := h.Wait(t.Context()); err != nil {
			t.Fatal(err)
		}
	}
	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("observed %d concurrently running units, want 1", got)
	}
}

func TestSerialTimeout(t *testing.T) {
	s := NewSerial(nil)
	release := make(chan struct{})

	slow := s.Enqueue("slow", UnitOptions{Timeout: 20 * time.Millisecond}, func(context.Context) error {
		<-release
		return nil
	})

	err := slow.Wait(t.Context())
	if errors.GetCode(err) != errors.ErrCodeTimeout {
		t.Fatalf("err = %v, want a timeout", err)
	}

	// The queue advances past the stuck unit; its eventual return is
	// discarded.
	next := s.Enqueue("next", UnitOptions{}, func(context.Context) error { return nil })
	close(release)
	if err := next.Wait(t.Context()); err != nil {
		t.Errorf("unit behind a timed-out one failed: %v", err)
	}
}

func TestSerialRetry(t *testing.T) {
	s := NewSerial(nil)

	attempts := 0
	h := s.Enqueue("flaky", UnitOptions{MaxRetries: 2}, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient %d", attempts)
		}
		return nil
	})
	if err := h.Wait(t.Context()); err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestSerialRetryExhausted(t *testing.T) {
	s := NewSerial(nil)

	attempts := 0
	h := s.Enqueue("doomed", UnitOptions{MaxRetries: 2}, func(context.Context) error {
		attempts++
		return fmt.Errorf("broken")
	})

	err := h.Wait(t.Context())
	if errors.GetCode(err) != errors.ErrCodeOperation {
		t.Fatalf("err = %v, want OPERATION_FAILED", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestSerialPanicRecovered(t *testing.T) {
	s := NewSerial(nil)

	h := s.Enqueue("boom", UnitOptions{}, func(context.Context) error {
		panic("kaboom")
	})
	err := h.Wait(t.Context())
	if errors.GetCode(err) != errors.ErrCodeOperation {
		t.Fatalf("panic surfaced as %v", err)
	}

	// Later units are unaffected.
	ok := s.Enqueue("after", UnitOptions{}, func(context.Context) error { return nil })
	if err := ok.Wait(t.Context()); err != nil {
		t.Errorf("unit after a panic failed: %v", err)
	}
}

func TestSerialNestedEnqueue(t *testing.T) {
	s := NewSerial(nil)

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	siblingQueued := make(chan struct{})
	var inner *Handle
	outer := s.Enqueue("outer", UnitOptions{}, func(context.Context) error {
		<-siblingQueued
		record("outer")
		inner = s.Enqueue("inner", UnitOptions{}, func(context.Context) error {
			record("inner")
			return nil
		})
		return nil
	})
	sibling := s.Enqueue("sibling", UnitOptions{}, func(context.Context) error {
		record("sibling")
		return nil
	})
	close(siblingQueued)

	if err := outer.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
	if err := sibling.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
	if err := inner.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}

	// The nested unit lands behind everything queued before it settled.
	want := []string{"outer", "sibling", "inner"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandleWaitCancelled(t *testing.T) {
	s := NewSerial(nil)
	release := make(chan struct{})
	defer close(release)

	h := s.Enqueue("stuck", UnitOptions{}, func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait on cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestSubmitFuture(t *testing.T) {
	s := NewSerial(nil)

	f := Submit(s, "compute", UnitOptions{}, func(context.Context) (int, error) {
		return 42, nil
	})
	v, err := f.Await(t.Context())
	if err != nil || v != 42 {
		t.Errorf("Await = (%d, %v), want (42, nil)", v, err)
	}

	fail := Submit(s, "compute", UnitOptions{}, func(context.Context) (int, error) {
		return 7, fmt.Errorf("nope")
	})
	v, err = fail.Await(t.Context())
	if err == nil || v != 0 {
		t.Errorf("failed Await = (%d, %v), want zero value and error", v, err)
	}
}

func TestSerialIntrospection(t *testing.T) {
	s := NewSerial(nil)
	if s.Running() || s.Len() != 0 {
		t.Fatal("fresh queue should be idle")
	}

	release := make(chan struct{})
	h := s.Enqueue("busy", UnitOptions{}, func(context.Context) error {
		<-release
		return nil
	})

	deadline := time.Now().Add(time.Second)
	for !s.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !s.Running() || s.Len() == 0 {
		t.Error("queue should report the running unit")
	}

	close(release)
	if err := h.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
}

func TestSerialLenCountsRunning(t *testing.T) {
	s := NewSerial(nil)

	release := make(chan struct{})
	first := s.Enqueue("blocked", UnitOptions{}, func(context.Context) error {
		<-release
		return nil
	})
	second := s.Enqueue("queued", UnitOptions{}, func(context.Context) error { return nil })
	third := s.Enqueue("queued", UnitOptions{}, func(context.Context) error { return nil })

	// All three are unsettled: one running plus two behind it. Either the
	// drain goroutine has popped the first entry already or it has not,
	// but Len must report 3 both ways.
	deadline := time.Now().Add(time.Second)
	for s.Len() != 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() with one running and two queued = %d, want 3", got)
	}

	close(release)
	for _, h := range []*Handle{first, second, third} {
		if err := h.Wait(t.Context()); err != nil {
			t.Fatal(err)
		}
	}
	// The drain goroutine clears its bookkeeping just after settlement.
	deadline = time.Now().Add(time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := s.Len(); got != 0 {
		t.Errorf("Len() after settlement = %d, want 0", got)
	}
}

func TestSerialThunkContextDeadline(t *testing.T) {
	s := NewSerial(nil)

	observed := make(chan error, 1)
	h := s.Enqueue("cooperative", UnitOptions{Timeout: 20 * time.Millisecond}, func(ctx context.Context) error {
		<-ctx.Done()
		observed <- ctx.Err()
		return ctx.Err()
	})

	if err := h.Wait(t.Context()); errors.GetCode(err) != errors.ErrCodeTimeout {
		t.Fatalf("err = %v, want a timeout", err)
	}
	select {
	case err := <-observed:
		if err != context.DeadlineExceeded {
			t.Errorf("thunk context ended with %v, want deadline exceeded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("thunk never saw its context expire")
	}
}
