package taskqueue

import (
	"context"
	"sync"

	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// EventQueue wraps a Queue and publishes events to an event bus whenever
// queue state changes. Mutations and their depth events are serialized by
// an internal mutex, so subscribers see counts in the order they became
// true. Handlers must not mutate the queue from inside a callback.
type EventQueue struct {
	mu  sync.Mutex
	q   *Queue
	bus *event.Bus
}

// NewEventQueue creates an EventQueue that publishes events on the given bus.
func NewEventQueue(q *Queue, bus *event.Bus) *EventQueue {
	return &EventQueue{q: q, bus: bus}
}

// Push enqueues a task and publishes a QueueDepthChangedEvent.
func (eq *EventQueue) Push(t task.Task) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if err := eq.q.Push(t); err != nil {
		return err
	}
	eq.publishDepth()
	return nil
}

// Pop delegates to the underlying queue. It does not take the wrapper
// mutex: Pop blocks until work arrives, and holding eq.mu here would
// stall every Push that could produce that work. No event fires either,
// since the popped task stays queued until MarkProcessing.
func (eq *EventQueue) Pop(ctx context.Context) (task.Task, error) {
	return eq.q.Pop(ctx)
}

// TryPop delegates to the underlying queue without blocking.
func (eq *EventQueue) TryPop() (task.Task, bool) {
	return eq.q.TryPop()
}

// MarkProcessing transitions a task to processing and publishes a
// QueueDepthChangedEvent.
func (eq *EventQueue) MarkProcessing(id string) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if err := eq.q.MarkProcessing(id); err != nil {
		return err
	}
	eq.publishDepth()
	return nil
}

// MarkCompleted records a successful result and publishes a
// QueueDepthChangedEvent.
func (eq *EventQueue) MarkCompleted(id string, res task.ExecutionResult) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if err := eq.q.MarkCompleted(id, res); err != nil {
		return err
	}
	eq.publishDepth()
	return nil
}

// MarkFailed records a failed or cancelled result and publishes a
// QueueDepthChangedEvent.
func (eq *EventQueue) MarkFailed(id string, res task.ExecutionResult) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if err := eq.q.MarkFailed(id, res); err != nil {
		return err
	}
	eq.publishDepth()
	return nil
}

// State returns the current state of a task.
func (eq *EventQueue) State(id string) (TaskState, bool) {
	return eq.q.State(id)
}

// Result returns the stored execution result for a task.
func (eq *EventQueue) Result(id string) (task.ExecutionResult, bool) {
	return eq.q.Result(id)
}

// Results returns all recorded execution results in submission order.
func (eq *EventQueue) Results() []task.ExecutionResult {
	return eq.q.Results()
}

// Pending returns the IDs of all non-terminal tasks in submission order.
func (eq *EventQueue) Pending() []string {
	return eq.q.Pending()
}

// Stats returns the current queue state counts.
func (eq *EventQueue) Stats() Stats {
	return eq.q.Stats()
}

// Depth returns the number of tasks waiting in the ready heap.
func (eq *EventQueue) Depth() int {
	return eq.q.Depth()
}

// IsComplete returns true when all tasks are in a terminal state.
func (eq *EventQueue) IsComplete() bool {
	return eq.q.IsComplete()
}

// publishDepth publishes a QueueDepthChangedEvent with current counts.
// Must be called while eq.mu is held.
func (eq *EventQueue) publishDepth() {
	if eq.bus == nil {
		return
	}
	s := eq.q.Stats()
	eq.bus.Publish(event.NewQueueDepthChangedEvent(
		s.Queued, s.Processing, s.Completed, s.Failed, s.Total,
	))
}

// Ensure the queue event type satisfies the Event interface at compile time.
var _ event.Event = event.QueueDepthChangedEvent{}

// Ensure error sentinels are usable with errors.Is.
var (
	_ error = ErrTaskNotFound
	_ error = ErrDuplicateTask
	_ error = ErrInvalidTransition
)
