// Package scaling decides when gearshift's adaptive mode should add
// workers, and produces tuning advisories after a run.
//
// During an adaptive run the worker pool only ever grows; workers shed
// themselves by idling out when the queue stays empty. The grow side is
// policy-driven: a worker is added when the queue holds more waiting
// tasks than there are workers and CPU utilization leaves room.
//
// The core types are:
//
//   - [Policy]: the grow rules (worker cap, CPU threshold, cooldown)
//   - [Controller]: ticks on a fixed interval, snapshots the run, and
//     applies the policy, fanning grow decisions out to handlers and the
//     event bus
//   - [Decision]: the output of a policy evaluation
//   - [Suggest]: post-run analysis returning advisories plus a candidate
//     tuned config, never applied automatically
//
// # Usage
//
//	policy := scaling.NewPolicy(
//	    scaling.WithMaxWorkers(8),
//	    scaling.WithGrowCPUThreshold(50),
//	)
//
//	ctl := scaling.NewController(policy, time.Second, snapshotFn, bus, logger)
//	ctl.OnDecision(func(d scaling.Decision) {
//	    spawnWorker()
//	})
//	ctl.Start(ctx)
//	defer ctl.Stop()
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package scaling
