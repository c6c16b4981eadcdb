// Package task defines the core data types shared across the engine:
// the Task input unit, per-task ExecutionResult, the run-level RunReport,
// and the status/mode enums.
package task

import "time"

// Task is a single unit of work submitted to the engine. Tasks are
// immutable inputs: the engine never modifies them, and callers must not
// mutate them after submission.
type Task struct {
	// ID uniquely identifies the task within a run.
	ID string `json:"id"`

	// Role names the worker role this task is bound to (e.g. "builder").
	Role string `json:"role"`

	// Description is the opaque payload handed to the invoker.
	Description string `json:"description"`

	// Priority orders dequeueing; lower values are more urgent.
	// Ties are broken by submission order.
	Priority int `json:"priority"`

	// EstimatedCost is an advisory duration estimate. The engine never
	// schedules on it; the simulated invoker uses it as task latency.
	EstimatedCost time.Duration `json:"estimated_cost,omitempty"`

	// Dependencies lists task IDs that must finish before this task is
	// admitted in pipeline mode. Other modes ignore it.
	Dependencies []string `json:"dependencies,omitempty"`
}

// Status represents the terminal state of an executed task.
type Status string

const (
	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task failed after exhausting retries.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the run was cancelled before the task
	// could finish. Cancellation is not failure.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Mode identifies the execution strategy chosen for a run.
type Mode string

const (
	// ModeSequential runs tasks one at a time in submission order.
	ModeSequential Mode = "sequential"

	// ModeParallel runs all tasks at once under a concurrency bound.
	ModeParallel Mode = "parallel"

	// ModePipeline runs tasks in dependency-ordered batches.
	ModePipeline Mode = "pipeline"

	// ModeAdaptive drains a shared queue with a self-scaling worker pool.
	ModeAdaptive Mode = "adaptive"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// ExecutionResult records the outcome of one task. Exactly one result
// exists per submitted task; the executor owns results until the run's
// report is returned.
type ExecutionResult struct {
	// TaskID identifies the task this result belongs to.
	TaskID string `json:"task_id"`

	// Status is the terminal state: completed, failed, or cancelled.
	Status Status `json:"status"`

	// Success is true only when Status is StatusCompleted.
	Success bool `json:"success"`

	// Output holds the invoker's output on success.
	Output string `json:"output,omitempty"`

	// ErrorMessage holds the failure description on failure or
	// cancellation.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt is when the first invocation attempt began. Zero for
	// tasks cancelled before they started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the task reached its terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// RetryCount is the number of retries consumed (not total attempts).
	RetryCount int `json:"retry_count"`
}

// Duration returns the wall-clock time from first attempt to terminal
// state, or zero when the task never started.
func (r ExecutionResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
