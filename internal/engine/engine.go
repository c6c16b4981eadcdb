package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/gearshift/internal/breaker"
	"github.com/Iron-Ham/gearshift/internal/config"
	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/logging"
	"github.com/Iron-Ham/gearshift/internal/monitor"
	"github.com/Iron-Ham/gearshift/internal/pool"
	"github.com/Iron-Ham/gearshift/internal/scaling"
	"github.com/Iron-Ham/gearshift/internal/task"
	"github.com/Iron-Ham/gearshift/internal/taskqueue"
)

// Mode selection thresholds. Evaluated in order: task count first, then
// the latest CPU reading, then task count again for the adaptive cutover.
const (
	// sequentialMaxTasks is the largest batch run one task at a time.
	sequentialMaxTasks = 2

	// pipelineCPUThreshold sends the run through the gentler
	// dependency-ordered pipeline when the host is already busy.
	pipelineCPUThreshold = 80.0

	// adaptiveMinTasks is the smallest batch handed to the self-scaling
	// worker pool.
	adaptiveMinTasks = 6

	// tuningWindow is how many recent resource samples feed the averages
	// behind OptimizeSuggestions.
	tuningWindow = 60
)

// Executor lifecycle sentinel errors.
var (
	// ErrRunActive indicates Run was called while another run was still in
	// progress. An executor runs one batch at a time.
	ErrRunActive = errors.New("a run is already in progress")

	// ErrExecutorClosed indicates an operation on a shut-down executor.
	ErrExecutorClosed = errors.New("executor is shut down")
)

// Invoker performs the domain work of a single task. It is the engine's
// sole extension point: any non-nil error is a failure for breaker and
// retry accounting, and the output string is passed through uninterpreted.
type Invoker interface {
	Invoke(ctx context.Context, t task.Task) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, t task.Task) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, t task.Task) (string, error) {
	return f(ctx, t)
}

// Executor runs batches of tasks under a resource budget. It owns the
// circuit breaker, connection pool, and resource monitor for its lifetime;
// construction starts the monitor and Shutdown releases everything.
type Executor struct {
	cfg     config.RunConfig
	invoker Invoker
	logger  *logging.Logger
	bus     *event.Bus
	probe   monitor.Probe

	breaker *breaker.Breaker
	pool    *pool.Pool
	monitor *monitor.Monitor

	// inFlight counts invocation attempts currently executing; it feeds
	// the monitor's ActiveTaskCount. workers counts live adaptive-mode
	// workers and is zero outside adaptive runs.
	inFlight atomic.Int64
	workers  atomic.Int64

	mu         sync.Mutex
	running    bool
	closed     bool
	queue      *taskqueue.EventQueue // non-nil only during an adaptive run
	lastReport *task.RunReport
}

// Option configures an Executor at construction.
type Option func(*Executor)

// WithLogger sets the logger. Components derive their own child loggers
// from it. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithBus sets the event bus lifecycle events are published to. Without
// one the executor runs silently.
func WithBus(bus *event.Bus) Option {
	return func(e *Executor) { e.bus = bus }
}

// WithProbe replaces the resource monitor's OS probe, for deterministic
// tests and embedders with their own metrics source.
func WithProbe(p monitor.Probe) Option {
	return func(e *Executor) { e.probe = p }
}

// New creates an Executor that runs tasks through invoker under cfg. The
// configuration is validated and copied; the connection pool is populated
// and the resource monitor started before New returns. Returns a wrapped
// ErrInvalidConfig when the invoker is nil or cfg fails validation.
func New(invoker Invoker, cfg config.RunConfig, opts ...Option) (*Executor, error) {
	if invoker == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "invoker must not be nil")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s", config.ValidationErrors(errs))
	}

	e := &Executor{
		cfg:     cfg,
		invoker: invoker,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NopLogger()
	}

	// Components attach their own component attribute, so they get the
	// base logger rather than the engine's child.
	base := e.logger
	e.logger = base.WithComponent("engine")

	e.breaker = breaker.New(cfg.CircuitBreakerThreshold, cfg.RecoveryTimeout(), base, e.bus)

	p, err := pool.New(cfg.ConnectionPoolSize, cfg.AcquireTimeout(), base, e.bus)
	if err != nil {
		return nil, err
	}
	e.pool = p

	e.monitor = monitor.New(cfg.SampleInterval(), cfg.HistorySize, e.activeTasks, base)
	if e.probe != nil {
		e.monitor.SetProbe(e.probe)
	}
	e.monitor.Start()

	e.logger.Info("executor created",
		"max_concurrent_tasks", cfg.MaxConcurrentTasks,
		"pool_size", cfg.ConnectionPoolSize,
		"breaker_threshold", cfg.CircuitBreakerThreshold,
	)
	return e, nil
}

// Run executes tasks to completion and returns the report. The execution
// mode is chosen once at entry; cancellation of ctx stops admitting work
// and records the unfinished tasks as cancelled rather than failed, so the
// report always satisfies completed + failed + cancelled == total. Run
// itself only errors before any task executes: on a closed executor, a
// concurrent run, or invalid task ids.
func (e *Executor) Run(ctx context.Context, tasks []task.Task) (*task.RunReport, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrExecutorClosed
	}
	if e.running {
		e.mu.Unlock()
		return nil, ErrRunActive
	}
	if err := checkTaskIDs(tasks); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.running = true
	cfg := e.cfg
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.queue = nil
		e.mu.Unlock()
	}()

	runID := uuid.NewString()
	mode, reason := e.selectMode(len(tasks))
	logger := e.logger.WithRun(runID)

	logger.Info("run started", "mode", mode.String(), "reason", reason, "tasks", len(tasks))
	e.publish(event.NewRunStartedEvent(runID, mode.String(), len(tasks)))

	start := time.Now()
	r := &run{
		exec:    e,
		cfg:     cfg,
		logger:  logger,
		tasks:   tasks,
		results: make(map[string]task.ExecutionResult, len(tasks)),
	}

	switch mode {
	case task.ModeSequential:
		r.runSequential(ctx)
	case task.ModeParallel:
		r.runParallel(ctx)
	case task.ModePipeline:
		r.runPipeline(ctx)
	case task.ModeAdaptive:
		r.runAdaptive(ctx)
	}

	report := r.buildReport(runID, mode, time.Since(start))

	e.mu.Lock()
	e.lastReport = report
	e.mu.Unlock()

	logger.Info("run finished",
		"completed", report.Completed,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"duration", report.Duration.Round(time.Millisecond).String(),
	)
	e.publish(event.NewRunFinishedEvent(runID, report.Completed, report.Failed, report.Cancelled, report.Duration))

	return report, nil
}

// selectMode picks the execution strategy for a batch and explains the
// choice. Tiny batches are not worth parallelism, a busy host gets the
// dependency-ordered pipeline, and large batches get the self-scaling
// worker pool.
func (e *Executor) selectMode(taskCount int) (task.Mode, string) {
	if taskCount <= sequentialMaxTasks {
		return task.ModeSequential, fmt.Sprintf("%d task(s), not worth parallelism", taskCount)
	}
	if s := e.monitor.Latest(); s != nil && s.CPUPercent > pipelineCPUThreshold {
		return task.ModePipeline, fmt.Sprintf("cpu at %.0f%%, above %.0f%%", s.CPUPercent, pipelineCPUThreshold)
	}
	if taskCount >= adaptiveMinTasks {
		return task.ModeAdaptive, fmt.Sprintf("%d tasks, large enough to scale workers", taskCount)
	}
	return task.ModeParallel, fmt.Sprintf("%d tasks fit the concurrency bound", taskCount)
}

// Status is a point-in-time snapshot of the executor. Safe to call during
// a run.
type Status struct {
	// Running reports whether a run is in progress.
	Running bool `json:"running"`

	// QueueDepth is the number of tasks waiting in the adaptive queue.
	// Zero outside adaptive runs.
	QueueDepth int `json:"queue_depth"`

	// ActiveWorkers is the live adaptive worker count.
	ActiveWorkers int `json:"active_workers"`

	// InFlight is the number of invocation attempts currently executing.
	InFlight int `json:"in_flight"`

	// CircuitState is the breaker's position: closed, open, or half-open.
	CircuitState breaker.State `json:"circuit_state"`

	// BreakerFailures is the breaker's consecutive-failure count.
	BreakerFailures int `json:"breaker_failures"`

	// Pool is a snapshot of the connection pool's counters.
	Pool pool.Stats `json:"pool"`

	// Resources is the most recent resource sample, nil before the first
	// sampling tick.
	Resources *monitor.Sample `json:"resources,omitempty"`
}

// Status returns a snapshot of the executor's moving parts.
func (e *Executor) Status() *Status {
	e.mu.Lock()
	running := e.running
	q := e.queue
	e.mu.Unlock()

	s := &Status{
		Running:         running,
		ActiveWorkers:   int(e.workers.Load()),
		InFlight:        int(e.inFlight.Load()),
		CircuitState:    e.breaker.State(),
		BreakerFailures: e.breaker.Failures(),
		Pool:            e.pool.Stats(),
		Resources:       e.monitor.Latest(),
	}
	if q != nil {
		s.QueueDepth = q.Depth()
	}
	return s
}

// OptimizeSuggestions analyzes recent resource history, the pool's
// overflow counter, and the last run's error rate, and returns tuning
// advisories with a candidate config incorporating them. Purely advisory:
// nothing is applied. An empty advisory list means the executor is
// operating within normal bounds.
func (e *Executor) OptimizeSuggestions() ([]string, config.RunConfig) {
	in := scaling.Inputs{Config: e.cfg}

	if avg := e.monitor.Average(tuningWindow); avg != nil {
		in.AvgCPU = avg.CPUPercent
		in.AvgMemory = avg.MemoryPercent
	}
	in.OverflowCreated = e.pool.Stats().OverflowCreated

	e.mu.Lock()
	if e.lastReport != nil {
		in.ErrorRate = e.lastReport.ErrorRate
	}
	e.mu.Unlock()

	return scaling.Suggest(in)
}

// Shutdown stops the resource monitor and closes the connection pool.
// Idempotent. The executor cannot run again after Shutdown.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.monitor.Stop()
	e.pool.Shutdown()
	e.logger.Info("executor shut down")
}

// activeTasks is the monitor's in-flight gauge.
func (e *Executor) activeTasks() int {
	return int(e.inFlight.Load())
}

// publish sends ev to the bus when one is configured.
func (e *Executor) publish(ev event.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// checkTaskIDs rejects batches the bookkeeping cannot represent: empty or
// duplicate task ids.
func checkTaskIDs(tasks []task.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return errors.Wrap(errors.ErrInvalidConfig, "task with empty id")
		}
		if _, dup := seen[t.ID]; dup {
			return errors.Wrapf(taskqueue.ErrDuplicateTask, "task %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
