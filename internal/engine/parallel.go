package engine

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/gearshift/internal/task"
)

// runParallel submits every task at once under the concurrency bound.
func (r *run) runParallel(ctx context.Context) {
	r.runBounded(ctx, r.tasks)
}

// runBounded executes tasks concurrently with at most MaxConcurrentTasks
// in flight and records every result. One task's failure never cancels
// its siblings; runBounded returns when all tasks reach a terminal state.
func (r *run) runBounded(ctx context.Context, tasks []task.Task) {
	p := pool.New().WithMaxGoroutines(r.cfg.MaxConcurrentTasks)
	for _, t := range tasks {
		t := t
		p.Go(func() {
			r.record(r.runTask(ctx, t))
		})
	}
	p.Wait()
}
