package taskqueue

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// Sentinel errors returned by queue operations.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrDuplicateTask     = errors.New("task already queued")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Queue is a thread-safe priority queue over tasks. Lower priority values
// pop first; tasks with equal priority come out in submission order.
// All methods are safe for concurrent use via an internal mutex.
type Queue struct {
	mu      sync.Mutex
	entries map[string]*entry // taskID -> entry
	ready   entryHeap         // entries still waiting to be popped
	seq     uint64
	wake    chan struct{} // closed and replaced whenever work arrives
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		entries: make(map[string]*entry),
		wake:    make(chan struct{}),
	}
}

// Push adds a task to the queue in the queued state and wakes any blocked
// Pop callers. Pushing an ID the queue already tracks returns
// ErrDuplicateTask.
func (q *Queue) Push(t task.Task) error {
	q.mu.Lock()
	if _, exists := q.entries[t.ID]; exists {
		q.mu.Unlock()
		return errors.Wrapf(ErrDuplicateTask, "task %s", t.ID)
	}

	e := &entry{
		task:     t,
		state:    StateQueued,
		seq:      q.seq,
		enqueued: time.Now(),
	}
	q.seq++
	q.entries[t.ID] = e
	heap.Push(&q.ready, e)

	wake := q.wake
	q.wake = make(chan struct{})
	q.mu.Unlock()

	close(wake)
	return nil
}

// Pop removes and returns the highest-priority waiting task, blocking
// until one is available or ctx is done. The context's error is returned
// unwrapped so callers can tell a cancelled run from an idle deadline.
//
// The popped task stays in the queued state until MarkProcessing records
// the pickup.
func (q *Queue) Pop(ctx context.Context) (task.Task, error) {
	for {
		q.mu.Lock()
		if q.ready.Len() > 0 {
			e := heap.Pop(&q.ready).(*entry)
			q.mu.Unlock()
			return e.task, nil
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return task.Task{}, ctx.Err()
		}
	}
}

// TryPop removes and returns the highest-priority waiting task without
// blocking. The second return is false when nothing is waiting.
func (q *Queue) TryPop() (task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready.Len() == 0 {
		return task.Task{}, false
	}
	e := heap.Pop(&q.ready).(*entry)
	return e.task, true
}

// MarkProcessing transitions a task from queued to processing. The task
// is removed from the ready heap if it was never popped, so batch-driven
// callers can claim tasks by ID directly.
func (q *Queue) MarkProcessing(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	if e.state != StateQueued {
		return errors.Wrapf(ErrInvalidTransition, "cannot transition task %s from %s to %s", id, e.state, StateProcessing)
	}
	if e.index >= 0 {
		heap.Remove(&q.ready, e.index)
	}
	e.state = StateProcessing
	return nil
}

// MarkCompleted transitions a task from processing to completed and
// stores its execution result.
func (q *Queue) MarkCompleted(id string, res task.ExecutionResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	if e.state != StateProcessing {
		return errors.Wrapf(ErrInvalidTransition, "cannot complete task %s in state %s", id, e.state)
	}
	e.state = StateCompleted
	e.result = &res
	return nil
}

// MarkFailed transitions a task to failed and stores its execution
// result. Both processing and queued tasks may fail: a queued task fails
// when the run is cancelled or aborted before it ever started.
func (q *Queue) MarkFailed(id string, res task.ExecutionResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	if e.state.IsTerminal() {
		return errors.Wrapf(ErrInvalidTransition, "cannot fail task %s in state %s", id, e.state)
	}
	if e.index >= 0 {
		heap.Remove(&q.ready, e.index)
	}
	e.state = StateFailed
	e.result = &res
	return nil
}

// State returns the current state of a task.
func (q *Queue) State(id string) (TaskState, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return "", false
	}
	return e.state, true
}

// Result returns the stored execution result for a task, if it has
// reached a terminal state.
func (q *Queue) Result(id string) (task.ExecutionResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok || e.result == nil {
		return task.ExecutionResult{}, false
	}
	return *e.result, true
}

// Results returns all recorded execution results in task submission
// order, so report output is stable across runs.
func (q *Queue) Results() []task.ExecutionResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	done := make([]*entry, 0, len(q.entries))
	for _, e := range q.entries {
		if e.result != nil {
			done = append(done, e)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].seq < done[j].seq })

	out := make([]task.ExecutionResult, len(done))
	for i, e := range done {
		out[i] = *e.result
	}
	return out
}

// Pending returns the IDs of all tasks not yet in a terminal state, in
// submission order. Used at shutdown to record cancelled results for
// work that never finished.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var open []*entry
	for _, e := range q.entries {
		if !e.state.IsTerminal() {
			open = append(open, e)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].seq < open[j].seq })

	ids := make([]string, len(open))
	for i, e := range open {
		ids[i] = e.task.ID
	}
	return ids
}

// Stats returns a snapshot of the current queue state counts.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{Total: len(q.entries)}
	for _, e := range q.entries {
		switch e.state {
		case StateQueued:
			s.Queued++
		case StateProcessing:
			s.Processing++
		case StateCompleted:
			s.Completed++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// Depth returns the number of tasks waiting in the ready heap. Unlike
// Stats().Queued it excludes popped tasks that have not been marked yet,
// which is the signal the adaptive scaler wants.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len()
}

// IsComplete returns true when all tasks are in a terminal state.
func (q *Queue) IsComplete() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if !e.state.IsTerminal() {
			return false
		}
	}
	return len(q.entries) > 0
}

// entryHeap is a min-heap of queue entries ordered by priority, then by
// submission sequence.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
