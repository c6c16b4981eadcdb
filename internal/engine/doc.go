// Package engine is gearshift's core: the [Executor] that runs a batch of
// tasks to completion under a resource budget.
//
// # Mode Selection
//
// [Executor.Run] chooses one of four strategies per batch, evaluated in
// order: one or two tasks run sequentially; a host above 80% CPU gets the
// dependency-ordered pipeline; six or more tasks get the self-scaling
// adaptive pool; everything else runs fully parallel under the
// MaxConcurrentTasks bound. [Executor.Plan] previews the choice without
// executing.
//
// # Invocation Path
//
// Whatever the mode, each attempt leases a connection from the pool,
// passes through the circuit breaker, and invokes the injected [Invoker]
// under the per-attempt timeout. Failed attempts are retried up to
// RetryCount times, except breaker rejections, timeouts, and
// cancellations, which are final. Panics inside the invoker are contained
// as task failures.
//
// # Results
//
// Run always returns a [task.RunReport] with one result per submitted
// task in submission order, satisfying completed + failed + cancelled ==
// total even when the run context is cancelled midway. Run itself errors
// only before any task executes.
//
// Usage:
//
//	exec, err := engine.New(invoker, config.DefaultRun(),
//	    engine.WithLogger(logger),
//	    engine.WithBus(bus),
//	)
//	if err != nil {
//	    return err
//	}
//	defer exec.Shutdown()
//
//	report, err := exec.Run(ctx, tasks)
//	if err != nil {
//	    return err
//	}
//	fmt.Print(report)
//
// An Executor is bound to its configuration: to run under different
// settings, construct a new one. [Executor.OptimizeSuggestions] proposes
// such settings from the observed behavior of past runs.
package engine
