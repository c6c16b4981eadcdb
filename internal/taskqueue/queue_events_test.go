package taskqueue

import (
	"context"
	"sync"
	"testing"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/task"
)

type eventCollector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *eventCollector) handler(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *eventCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *eventCollector) depthEvents() []event.QueueDepthChangedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found []event.QueueDepthChangedEvent
	for _, e := range c.events {
		if de, ok := e.(event.QueueDepthChangedEvent); ok {
			found = append(found, de)
		}
	}
	return found
}

func newTestEventQueue() (*EventQueue, *eventCollector) {
	bus := event.NewBus()
	col := &eventCollector{}
	bus.SubscribeAll(col.handler)
	return NewEventQueue(New(), bus), col
}

func TestEventQueue_PushPublishesDepth(t *testing.T) {
	eq, col := newTestEventQueue()

	if err := eq.Push(makeTask("t1", 0)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := eq.Push(makeTask("t2", 0)); err != nil {
		t.Fatalf("Push: %v", err)
	}

	depths := col.depthEvents()
	if len(depths) != 2 {
		t.Fatalf("got %d depth events, want 2", len(depths))
	}
	last := depths[len(depths)-1]
	if last.Queued != 2 || last.Total != 2 {
		t.Errorf("last depth event = %+v, want Queued=2 Total=2", last)
	}
	if got := last.EventType(); got != "queue.depth_changed" {
		t.Errorf("EventType = %q, want queue.depth_changed", got)
	}
}

func TestEventQueue_LifecyclePublishesEachTransition(t *testing.T) {
	eq, col := newTestEventQueue()

	if err := eq.Push(makeTask("t1", 0)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := eq.MarkProcessing("t1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := eq.MarkCompleted("t1", completedResult("t1")); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	depths := col.depthEvents()
	if len(depths) != 3 {
		t.Fatalf("got %d depth events, want 3 (push, processing, completed)", len(depths))
	}

	final := depths[len(depths)-1]
	if final.Completed != 1 || final.Queued != 0 || final.Processing != 0 || final.Total != 1 {
		t.Errorf("final depth event = %+v, want one completed task", final)
	}
}

func TestEventQueue_FailedOpPublishesNothing(t *testing.T) {
	eq, col := newTestEventQueue()

	if err := eq.Push(makeTask("t1", 0)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	before := col.count()

	if err := eq.Push(makeTask("t1", 0)); !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("duplicate Push = %v, want ErrDuplicateTask", err)
	}
	if err := eq.MarkCompleted("t1", completedResult("t1")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("MarkCompleted from queued = %v, want ErrInvalidTransition", err)
	}

	if got := col.count(); got != before {
		t.Errorf("event count = %d, want %d (rejected ops must not publish)", got, before)
	}
}

func TestEventQueue_PopDoesNotPublish(t *testing.T) {
	eq, col := newTestEventQueue()

	if err := eq.Push(makeTask("t1", 0)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	before := col.count()

	tk, err := eq.Pop(context.Background())
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if tk.ID != "t1" {
		t.Errorf("Pop = %q, want t1", tk.ID)
	}

	// The pickup is not a state change; MarkProcessing reports it.
	if got := col.count(); got != before {
		t.Errorf("event count after Pop = %d, want %d", got, before)
	}
}

func TestEventQueue_NilBus(t *testing.T) {
	eq := NewEventQueue(New(), nil)

	if err := eq.Push(makeTask("t1", 0)); err != nil {
		t.Fatalf("Push with nil bus: %v", err)
	}
	if err := eq.MarkProcessing("t1"); err != nil {
		t.Fatalf("MarkProcessing with nil bus: %v", err)
	}
	if err := eq.MarkFailed("t1", task.ExecutionResult{TaskID: "t1", Status: task.StatusFailed}); err != nil {
		t.Fatalf("MarkFailed with nil bus: %v", err)
	}

	s := eq.Stats()
	if s.Failed != 1 || s.Total != 1 {
		t.Errorf("Stats = %+v, want Failed=1 Total=1", s)
	}
}
