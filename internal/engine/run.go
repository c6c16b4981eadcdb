package engine

import (
	"sync"
	"time"

	"github.com/Iron-Ham/gearshift/internal/config"
	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/logging"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// run holds the state of one Run call: the config copied at entry, the
// run-scoped logger, and the results keyed by task id. The mode
// implementations record results concurrently; the report is assembled
// once at the end in submission order.
type run struct {
	exec   *Executor
	cfg    config.RunConfig
	logger *logging.Logger
	tasks  []task.Task

	mu      sync.Mutex
	results map[string]task.ExecutionResult
}

// record stores a task's terminal result.
func (r *run) record(res task.ExecutionResult) {
	r.mu.Lock()
	r.results[res.TaskID] = res
	r.mu.Unlock()
}

// result returns the recorded result for a task, if it has one.
func (r *run) result(id string) (task.ExecutionResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	return res, ok
}

// buildReport assembles the ordered report. Any task that never reached a
// terminal state is recorded as cancelled, keeping the invariant
// completed + failed + cancelled == total.
func (r *run) buildReport(runID string, mode task.Mode, duration time.Duration) *task.RunReport {
	report := &task.RunReport{
		RunID:    runID,
		Mode:     mode,
		Total:    len(r.tasks),
		Duration: duration,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		res, ok := r.results[t.ID]
		if !ok {
			res = cancelledBeforeStart(t.ID)
		}
		switch res.Status {
		case task.StatusCompleted:
			report.Completed++
		case task.StatusFailed:
			report.Failed++
		default:
			report.Cancelled++
		}
		report.Results = append(report.Results, res)
	}

	report.Finalize()
	return report
}

// cancelledBeforeStart builds the result for a task the run never got to.
// StartedAt stays zero so the report shows the task as never attempted.
func cancelledBeforeStart(id string) task.ExecutionResult {
	return task.ExecutionResult{
		TaskID:       id,
		Status:       task.StatusCancelled,
		ErrorMessage: errors.ErrRunCancelled.Error(),
		FinishedAt:   time.Now(),
	}
}

// taskIDs extracts ids preserving order.
func taskIDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
