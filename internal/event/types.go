package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "breaker.opened")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted when the executor begins a run.
type RunStartedEvent struct {
	baseEvent
	RunID     string // Unique identifier for the run
	Mode      string // Execution mode chosen for the run
	TaskCount int    // Number of tasks submitted
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(runID, mode string, taskCount int) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent("run.started"),
		RunID:     runID,
		Mode:      mode,
		TaskCount: taskCount,
	}
}

// RunFinishedEvent is emitted when a run completes, whatever the outcome.
type RunFinishedEvent struct {
	baseEvent
	RunID     string        // Run that finished
	Completed int           // Tasks that completed successfully
	Failed    int           // Tasks that failed
	Cancelled int           // Tasks cancelled before finishing
	Duration  time.Duration // Wall-clock duration of the run
}

// NewRunFinishedEvent creates a RunFinishedEvent.
func NewRunFinishedEvent(runID string, completed, failed, cancelled int, duration time.Duration) RunFinishedEvent {
	return RunFinishedEvent{
		baseEvent: newBaseEvent("run.finished"),
		RunID:     runID,
		Completed: completed,
		Failed:    failed,
		Cancelled: cancelled,
		Duration:  duration,
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted when a task invocation attempt begins.
type TaskStartedEvent struct {
	baseEvent
	TaskID  string // Task being invoked
	Role    string // Worker role the task is bound to
	Attempt int    // Attempt number, 1-based
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(taskID, role string, attempt int) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent: newBaseEvent("task.started"),
		TaskID:    taskID,
		Role:      role,
		Attempt:   attempt,
	}
}

// TaskCompletedEvent is emitted when a task reaches a terminal state.
type TaskCompletedEvent struct {
	baseEvent
	TaskID  string // Task that finished
	Success bool   // Whether the task completed successfully
	Reason  string // Failure reason code (empty on success)
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID string, success bool, reason string) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent("task.completed"),
		TaskID:    taskID,
		Success:   success,
		Reason:    reason,
	}
}

// TaskRetriedEvent is emitted when a failed attempt is retried.
type TaskRetriedEvent struct {
	baseEvent
	TaskID  string // Task being retried
	Attempt int    // The attempt that just failed, 1-based
	Reason  string // Failure reason code of the failed attempt
}

// NewTaskRetriedEvent creates a TaskRetriedEvent.
func NewTaskRetriedEvent(taskID string, attempt int, reason string) TaskRetriedEvent {
	return TaskRetriedEvent{
		baseEvent: newBaseEvent("task.retried"),
		TaskID:    taskID,
		Attempt:   attempt,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Circuit Breaker Events
// -----------------------------------------------------------------------------

// BreakerOpenedEvent is emitted when the circuit breaker trips open.
type BreakerOpenedEvent struct {
	baseEvent
	Failures int // Failure count at the moment the breaker opened
}

// NewBreakerOpenedEvent creates a BreakerOpenedEvent.
func NewBreakerOpenedEvent(failures int) BreakerOpenedEvent {
	return BreakerOpenedEvent{
		baseEvent: newBaseEvent("breaker.opened"),
		Failures:  failures,
	}
}

// BreakerClosedEvent is emitted when the breaker recovers to the closed state.
type BreakerClosedEvent struct {
	baseEvent
}

// NewBreakerClosedEvent creates a BreakerClosedEvent.
func NewBreakerClosedEvent() BreakerClosedEvent {
	return BreakerClosedEvent{baseEvent: newBaseEvent("breaker.closed")}
}

// -----------------------------------------------------------------------------
// Connection Pool Events
// -----------------------------------------------------------------------------

// PoolOverflowEvent is emitted when an acquire waited past its bound and the
// pool created an overflow connection instead of failing.
type PoolOverflowEvent struct {
	baseEvent
	ConnectionID string // The overflow connection that was created
	Active       int    // Connections leased at the time, overflow included
}

// NewPoolOverflowEvent creates a PoolOverflowEvent.
func NewPoolOverflowEvent(connectionID string, active int) PoolOverflowEvent {
	return PoolOverflowEvent{
		baseEvent:    newBaseEvent("pool.overflow"),
		ConnectionID: connectionID,
		Active:       active,
	}
}

// -----------------------------------------------------------------------------
// Worker Events (Adaptive Mode)
// -----------------------------------------------------------------------------

// WorkerSpawnedEvent is emitted when the adaptive controller grows the
// worker pool by one.
type WorkerSpawnedEvent struct {
	baseEvent
	WorkerID int    // Identifier of the new worker within the run
	Workers  int    // Worker count after the spawn
	Reason   string // Why the controller decided to grow
}

// NewWorkerSpawnedEvent creates a WorkerSpawnedEvent.
func NewWorkerSpawnedEvent(workerID, workers int, reason string) WorkerSpawnedEvent {
	return WorkerSpawnedEvent{
		baseEvent: newBaseEvent("worker.spawned"),
		WorkerID:  workerID,
		Workers:   workers,
		Reason:    reason,
	}
}

// WorkerExitedEvent is emitted when an adaptive worker exits, either because
// its pop wait timed out with no work or because the run ended.
type WorkerExitedEvent struct {
	baseEvent
	WorkerID int    // Identifier of the exiting worker
	Workers  int    // Worker count after the exit
	Reason   string // "idle" or "run_done"
}

// NewWorkerExitedEvent creates a WorkerExitedEvent.
func NewWorkerExitedEvent(workerID, workers int, reason string) WorkerExitedEvent {
	return WorkerExitedEvent{
		baseEvent: newBaseEvent("worker.exited"),
		WorkerID:  workerID,
		Workers:   workers,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Queue Events
// -----------------------------------------------------------------------------

// QueueDepthChangedEvent is emitted whenever the task queue's state counts
// change. Scaling logic and observers subscribe to this to track backlog.
type QueueDepthChangedEvent struct {
	baseEvent
	Queued     int // Tasks waiting to be popped
	Processing int // Tasks currently being executed
	Completed  int // Tasks completed successfully
	Failed     int // Tasks that failed permanently
	Total      int // All tasks known to the queue
}

// NewQueueDepthChangedEvent creates a QueueDepthChangedEvent.
func NewQueueDepthChangedEvent(queued, processing, completed, failed, total int) QueueDepthChangedEvent {
	return QueueDepthChangedEvent{
		baseEvent:  newBaseEvent("queue.depth_changed"),
		Queued:     queued,
		Processing: processing,
		Completed:  completed,
		Failed:     failed,
		Total:      total,
	}
}

// -----------------------------------------------------------------------------
// Scaling Events
// -----------------------------------------------------------------------------

// ScalingDecisionEvent is emitted when the adaptive controller makes a
// non-trivial scaling decision.
type ScalingDecisionEvent struct {
	baseEvent
	Action  string // The decision action ("grow", "none")
	Delta   int    // Workers to add
	Reason  string // Human-readable explanation
	Workers int    // Worker count when the decision was made
}

// NewScalingDecisionEvent creates a ScalingDecisionEvent.
func NewScalingDecisionEvent(action string, delta int, reason string, workers int) ScalingDecisionEvent {
	return ScalingDecisionEvent{
		baseEvent: newBaseEvent("scaling.decision"),
		Action:    action,
		Delta:     delta,
		Reason:    reason,
		Workers:   workers,
	}
}
