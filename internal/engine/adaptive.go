package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/scaling"
	"github.com/Iron-Ham/gearshift/internal/task"
	"github.com/Iron-Ham/gearshift/internal/taskqueue"
)

// Worker exit reasons carried on worker.exited events.
const (
	workerExitIdle    = "idle"
	workerExitRunDone = "run_done"
)

// runAdaptive drains a shared priority queue with a self-scaling worker
// pool. Every task is queued up front and min(MaxConcurrentTasks, task
// count) workers start immediately. A controller ticking on the sample
// interval grows the pool by one while there is queue backlog, CPU
// headroom, and room under MaxConcurrentTasks. Workers exit on their own
// when the queue stays idle past WorkerIdleTimeout; there is no explicit
// shrink.
func (r *run) runAdaptive(ctx context.Context) {
	exec := r.exec

	q := taskqueue.NewEventQueue(taskqueue.New(), exec.bus)
	for _, t := range r.tasks {
		// Ids are unique by Run's entry check, so Push cannot fail.
		_ = q.Push(t)
	}

	exec.mu.Lock()
	exec.queue = q
	exec.mu.Unlock()

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	var wg sync.WaitGroup
	var nextWorker atomic.Int64
	spawn := func(reason string) {
		id := int(nextWorker.Add(1))
		workers := int(exec.workers.Add(1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.adaptiveWorker(workCtx, id, q, finish)
		}()
		r.logger.Info("worker spawned", "worker_id", id, "workers", workers, "reason", reason)
		exec.publish(event.NewWorkerSpawnedEvent(id, workers, reason))
	}

	initial := min(r.cfg.MaxConcurrentTasks, len(r.tasks))
	for i := 0; i < initial; i++ {
		spawn("initial workers")
	}

	policy := scaling.NewPolicy(scaling.WithMaxWorkers(r.cfg.MaxConcurrentTasks))
	ctl := scaling.NewController(policy, r.cfg.SampleInterval(), func() scaling.Snapshot {
		snap := scaling.Snapshot{
			QueueDepth: q.Depth(),
			Workers:    int(exec.workers.Load()),
		}
		if s := exec.monitor.Latest(); s != nil {
			snap.CPUPercent = s.CPUPercent
			snap.MemoryPercent = s.MemoryPercent
		}
		return snap
	}, exec.bus, r.logger)
	ctl.OnDecision(func(d scaling.Decision) {
		for i := 0; i < d.Delta; i++ {
			spawn(d.Reason)
		}
	})
	ctl.Start(workCtx)

	select {
	case <-done:
	case <-ctx.Done():
	}

	// Stop spawning before cancelling the workers' pop context, then wait
	// them out.
	ctl.Stop()
	cancelWork()
	wg.Wait()

	// Tasks the run never got to are recorded cancelled.
	for _, id := range q.Pending() {
		_ = q.MarkFailed(id, cancelledBeforeStart(id))
	}
	for _, res := range q.Results() {
		r.record(res)
	}
}

// adaptiveWorker pops and executes tasks until the queue stays idle past
// WorkerIdleTimeout or the run ends. The worker that marks the final task
// terminal wakes the run.
func (r *run) adaptiveWorker(ctx context.Context, id int, q *taskqueue.EventQueue, finish func()) {
	exec := r.exec
	wlog := r.logger.With("worker_id", id)
	wlog.Debug("worker started")

	reason := workerExitRunDone
	defer func() {
		workers := int(exec.workers.Add(-1))
		wlog.Debug("worker exited", "reason", reason, "workers", workers)
		exec.publish(event.NewWorkerExitedEvent(id, workers, reason))
	}()

	for {
		popCtx, cancel := context.WithTimeout(ctx, r.cfg.WorkerIdleTimeout())
		t, err := q.Pop(popCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				reason = workerExitIdle
			}
			return
		}

		_ = q.MarkProcessing(t.ID)
		res := r.runTask(ctx, t)
		if res.Status == task.StatusCompleted {
			_ = q.MarkCompleted(t.ID, res)
		} else {
			_ = q.MarkFailed(t.ID, res)
		}

		if q.IsComplete() {
			finish()
			return
		}
	}
}
