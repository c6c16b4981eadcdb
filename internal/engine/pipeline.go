package engine

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// runPipeline executes tasks in dependency order: repeatedly admit every
// pending task whose dependencies have completed, run the wave in batches,
// and re-evaluate. When tasks remain but none are admissible (a cycle, a
// missing dependency, or a dependency that failed), the remainder is
// force-admitted with a warning by default, or failed with a dependency
// error under StrictDependencies.
func (r *run) runPipeline(ctx context.Context) {
	pending := slices.Clone(r.tasks)
	completed := make(map[string]bool, len(r.tasks))
	admitted := 0

	for len(pending) > 0 {
		var ready, blocked []task.Task
		for _, t := range pending {
			if dependenciesMet(t, completed) {
				ready = append(ready, t)
			} else {
				blocked = append(blocked, t)
			}
		}

		if len(ready) == 0 {
			r.handleRemainder(ctx, blocked, admitted)
			return
		}

		admitted = r.admitWave(ctx, ready, admitted)

		for _, t := range ready {
			if res, ok := r.result(t.ID); ok && res.Status == task.StatusCompleted {
				completed[t.ID] = true
			}
		}
		pending = blocked
	}
}

// admitWave runs one admission wave: highest urgency first, in BatchSize
// chunks, pausing between consecutive batches of the run. Returns the
// updated batch count.
func (r *run) admitWave(ctx context.Context, wave []task.Task, admitted int) int {
	sort.SliceStable(wave, func(i, j int) bool {
		return wave[i].Priority < wave[j].Priority
	})

	for start := 0; start < len(wave); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(wave))
		chunk := wave[start:end:end]
		if admitted > 0 {
			r.pause(ctx)
		}
		admitted++
		r.logger.Debug("batch admitted", "batch", admitted, "tasks", taskIDs(chunk))
		r.runBounded(ctx, chunk)
	}
	return admitted
}

// handleRemainder deals with tasks that can never be admitted. Best-effort
// runs them anyway; strict mode records each as a dependency failure.
func (r *run) handleRemainder(ctx context.Context, remainder []task.Task, admitted int) {
	ids := taskIDs(remainder)

	if r.cfg.StrictDependencies {
		r.logger.Warn("dependencies cannot be satisfied, failing remaining tasks", "tasks", ids)
		for _, t := range remainder {
			r.record(dependencyFailure(t))
			r.exec.publish(event.NewTaskCompletedEvent(t.ID, false, errors.ReasonDependency.String()))
		}
		return
	}

	r.logger.Warn("dependencies cannot be satisfied, forcing remaining tasks", "tasks", ids)
	r.admitWave(ctx, remainder, admitted)
}

// pause waits out the configured batch pause, cut short by cancellation.
func (r *run) pause(ctx context.Context) {
	if r.cfg.BatchPause() <= 0 || ctx.Err() != nil {
		return
	}
	timer := time.NewTimer(r.cfg.BatchPause())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// dependenciesMet reports whether every dependency of t has completed.
// Dependencies naming unknown tasks can never be met.
func dependenciesMet(t task.Task, completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// dependencyFailure builds the failed result for a task whose
// dependencies could never be satisfied under strict checking.
func dependencyFailure(t task.Task) task.ExecutionResult {
	err := errors.Wrapf(errors.ErrDependencyCycle, "task %s dependencies cannot be satisfied", t.ID)
	return task.ExecutionResult{
		TaskID:       t.ID,
		Status:       task.StatusFailed,
		ErrorMessage: err.Error(),
		FinishedAt:   time.Now(),
	}
}
