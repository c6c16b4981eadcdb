package taskqueue

import (
	"time"

	"github.com/Iron-Ham/gearshift/internal/task"
)

// TaskState tracks where a task sits in the queue lifecycle.
type TaskState string

const (
	// StateQueued means the task is waiting for a worker to pick it up.
	StateQueued TaskState = "queued"

	// StateProcessing means a worker is currently executing the task.
	StateProcessing TaskState = "processing"

	// StateCompleted means the task finished successfully.
	StateCompleted TaskState = "completed"

	// StateFailed means the task exhausted its attempts or was cancelled
	// before it could run. The stored result's Status tells the two apart.
	StateFailed TaskState = "failed"
)

// String returns the string representation of the task state.
func (s TaskState) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final state.
func (s TaskState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// entry is the queue's bookkeeping record for a single task.
type entry struct {
	task     task.Task
	state    TaskState
	seq      uint64 // submission order, breaks priority ties
	index    int    // position in the ready heap, -1 once removed
	enqueued time.Time
	result   *task.ExecutionResult
}

// Stats is a snapshot of the queue's current state counts. Counts are by
// task state, so Queued+Processing+Completed+Failed == Total.
type Stats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}
