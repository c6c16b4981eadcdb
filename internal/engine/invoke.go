package engine

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// runTask executes one task to its terminal state: invocation attempts
// through the pool and breaker, retries per RetryCount, and final result
// classification. Every mode funnels through here.
func (r *run) runTask(ctx context.Context, t task.Task) task.ExecutionResult {
	exec := r.exec

	if ctx.Err() != nil {
		exec.publish(event.NewTaskCompletedEvent(t.ID, false, errors.ReasonCancelled.String()))
		return cancelledBeforeStart(t.ID)
	}

	tlog := r.logger.WithTask(t.ID)
	res := task.ExecutionResult{
		TaskID:    t.ID,
		StartedAt: time.Now(),
	}

	maxAttempts := 1 + r.cfg.RetryCount

	var output string
	var err error
	attempt := 0
	for {
		attempt++
		exec.publish(event.NewTaskStartedEvent(t.ID, t.Role, attempt))
		tlog.Debug("task attempt started", "attempt", attempt)

		output, err = r.attempt(ctx, t)
		if err == nil {
			break
		}
		if attempt >= maxAttempts || !errors.IsRetryable(err) {
			break
		}

		tlog.Warn("task attempt failed, retrying", "attempt", attempt, "error", err)
		exec.publish(event.NewTaskRetriedEvent(t.ID, attempt, errors.ReasonOf(err).String()))
	}

	res.RetryCount = attempt - 1
	res.FinishedAt = time.Now()

	if err == nil {
		res.Status = task.StatusCompleted
		res.Success = true
		res.Output = output
		tlog.Info("task completed", "attempts", attempt, "duration", res.Duration().Round(time.Millisecond).String())
		exec.publish(event.NewTaskCompletedEvent(t.ID, true, ""))
		return res
	}

	reason := errors.ReasonOf(err)
	if reason == errors.ReasonCancelled {
		res.Status = task.StatusCancelled
	} else {
		res.Status = task.StatusFailed
	}
	res.ErrorMessage = err.Error()
	tlog.Warn("task did not complete", "reason", reason.String(), "attempts", attempt, "error", err)
	exec.publish(event.NewTaskCompletedEvent(t.ID, false, reason.String()))
	return res
}

// attempt makes one invocation attempt: lease a connection, run the
// invocation through the breaker, release on every exit path.
func (r *run) attempt(ctx context.Context, t task.Task) (string, error) {
	exec := r.exec

	conn, err := exec.pool.Acquire(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "acquire connection for task %s", t.ID)
	}
	defer exec.pool.Release(conn)

	return exec.breaker.Call(ctx, func(ctx context.Context) (string, error) {
		return r.invokeWithTimeout(ctx, t)
	})
}

// invocation outcome handed back from the attempt goroutine.
type outcome struct {
	output string
	err    error
}

// invokeWithTimeout runs the injected invocation under a per-attempt
// timeout. A cooperative invoker sees the attempt context cancelled and
// returns promptly; a non-cooperative one is abandoned, with the buffered
// channel letting its goroutine finish and the panic catcher guarding the
// handoff either way.
func (r *run) invokeWithTimeout(ctx context.Context, t task.Task) (string, error) {
	exec := r.exec

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.TaskTimeout())
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		exec.inFlight.Add(1)
		defer exec.inFlight.Add(-1)

		var out string
		var err error
		var catcher panics.Catcher
		catcher.Try(func() {
			out, err = exec.invoker.Invoke(attemptCtx, t)
		})
		if rec := catcher.Recovered(); rec != nil {
			err = errors.NewTaskError("invoker panicked", rec.AsError()).
				WithTaskID(t.ID).
				WithReason(errors.ReasonPanic)
		}
		ch <- outcome{output: out, err: err}
	}()

	select {
	case o := <-ch:
		return o.output, r.classifyAttempt(ctx, t, o)

	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return "", errors.Wrapf(errors.ErrRunCancelled, "task %s interrupted", t.ID)
		}
		return "", errors.Wrapf(errors.ErrTaskTimeout, "task %s exceeded %s", t.ID, r.cfg.TaskTimeout())
	}
}

// classifyAttempt maps raw context errors surfaced by a cooperative
// invoker onto the engine's failure taxonomy, so a timeout is a timeout
// and a cancelled run is a cancellation whichever side noticed first.
func (r *run) classifyAttempt(ctx context.Context, t task.Task, o outcome) error {
	switch {
	case o.err == nil:
		return nil
	case errors.Is(o.err, context.DeadlineExceeded) && ctx.Err() == nil:
		return errors.Wrapf(errors.ErrTaskTimeout, "task %s exceeded %s", t.ID, r.cfg.TaskTimeout())
	case errors.Is(o.err, context.Canceled) && ctx.Err() != nil:
		return errors.Wrapf(errors.ErrRunCancelled, "task %s interrupted", t.ID)
	}
	return o.err
}
