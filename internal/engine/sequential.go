package engine

import "context"

// runSequential executes tasks one at a time in submission order. A
// failure is recorded and the run moves on; once ctx is cancelled the
// remaining tasks record as cancelled without being attempted.
func (r *run) runSequential(ctx context.Context) {
	for _, t := range r.tasks {
		r.record(r.runTask(ctx, t))
	}
}
