// Package event provides a pub-sub event bus for decoupled inter-component
// communication in gearshift.
//
// This package enables loose coupling between the executor, circuit breaker,
// connection pool, task queue, and scaling controller by allowing them to
// communicate through events rather than direct method calls. Components can
// publish events without knowing who will receive them, and subscribe to
// events without knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// The package defines several categories of events:
//
// Run Lifecycle:
//   - [RunStartedEvent]: Emitted when the executor begins a run
//   - [RunFinishedEvent]: Emitted when a run completes
//
// Task Lifecycle:
//   - [TaskStartedEvent]: Emitted when a task invocation attempt begins
//   - [TaskCompletedEvent]: Emitted when a task reaches a terminal state
//   - [TaskRetriedEvent]: Emitted when a failed attempt is retried
//
// Circuit Breaker:
//   - [BreakerOpenedEvent]: Emitted when the breaker trips open
//   - [BreakerClosedEvent]: Emitted when the breaker recovers
//
// Connection Pool:
//   - [PoolOverflowEvent]: Emitted when an acquire falls back to an overflow connection
//
// Workers and Scaling:
//   - [WorkerSpawnedEvent]: Emitted when the adaptive controller adds a worker
//   - [WorkerExitedEvent]: Emitted when an adaptive worker exits
//   - [ScalingDecisionEvent]: Emitted when the controller makes a scaling decision
//   - [QueueDepthChangedEvent]: Emitted when task queue state counts change
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("task.completed", func(e event.Event) {
//	    done := e.(event.TaskCompletedEvent)
//	    log.Printf("Task %s finished (success=%v)", done.TaskID, done.Success)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Publish events
//	bus.Publish(event.NewTaskStartedEvent("task-1", "builder", 1))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("breaker.opened", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - run.started, run.finished
//   - task.started, task.completed, task.retried
//   - breaker.opened, breaker.closed
//   - pool.overflow
//   - worker.spawned, worker.exited
//   - queue.depth_changed
//   - scaling.decision
package event
