// Package taskqueue provides the priority queue that feeds gearshift's
// execution modes.
//
// The core type is [Queue], a thread-safe priority queue where lower
// priority values pop first and ties resolve in submission order.
// [Queue.Pop] blocks until work arrives, which lets adaptive-mode workers
// sleep on an empty queue instead of spinning.
//
// Every task moves through a small lifecycle: queued when pushed,
// processing once a worker claims it, then completed or failed. The queue
// stores a [task.ExecutionResult] for each finished task, so a run's
// report can be assembled from the queue alone once execution ends.
//
// [EventQueue] wraps a Queue and publishes a queue.depth event after
// every state change, feeding live progress to subscribers without
// polling.
//
// [Batches] groups tasks into dependency levels for pipeline execution:
// each batch depends only on tasks in earlier batches. Tasks stuck on a
// dependency cycle or a missing dependency are returned separately so the
// caller can decide whether to force-admit or fail them.
//
// Usage:
//
//	queue := taskqueue.New()
//	_ = queue.Push(t)
//
//	// Worker claims the next task, blocking until one is ready.
//	next, err := queue.Pop(ctx)
//	if err == nil {
//	    _ = queue.MarkProcessing(next.ID)
//	    // ... execute task ...
//	    _ = queue.MarkCompleted(next.ID, result)
//	}
package taskqueue
