package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	q := NoopQueueHooks{}
	q.OnUnitEnqueued(ctx, "u1", "pipeline", 1)
	q.OnUnitStart(ctx, "u1", "pipeline")
	q.OnUnitRetry(ctx, "u1", "pipeline", 1, nil)
	q.OnUnitTimeout(ctx, "u1", "pipeline", time.Second)
	q.OnUnitComplete(ctx, "u1", "pipeline", time.Second, nil)

	p := NoopPipelineHooks{}
	p.OnLayoutStart(ctx, 100)
	p.OnLayoutComplete(ctx, time.Second, nil)
	p.OnLayoutSkipped(ctx, 7)
	p.OnConvertComplete(ctx, 100, 50, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Queue().(NoopQueueHooks); !ok {
		t.Error("Queue() should return NoopQueueHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}

	customQueue := &testQueueHooks{}
	SetQueueHooks(customQueue)
	if Queue() != customQueue {
		t.Error("SetQueueHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	Reset()
	if _, ok := Queue().(NoopQueueHooks); !ok {
		t.Error("Reset() should restore NoopQueueHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testQueueHooks{}
	SetQueueHooks(custom)
	SetQueueHooks(nil)

	if Queue() != custom {
		t.Error("SetQueueHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testQueueHooks struct{ NoopQueueHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
