package scaling

import (
	"fmt"

	"github.com/Iron-Ham/gearshift/internal/config"
)

// Advisory thresholds. CPU and memory are percentages, error rate is a
// 0-1 fraction.
const (
	highCPUThreshold   = 80.0
	lowCPUThreshold    = 30.0
	highMemThreshold   = 85.0
	highErrorThreshold = 0.5
)

// Inputs summarizes a finished run for advisory analysis. Zero-valued
// resource fields mean no samples were collected, and the corresponding
// rules are skipped.
type Inputs struct {
	// Config is the configuration the run executed under.
	Config config.RunConfig

	// AvgCPU is the windowed average CPU utilization during the run, 0-100.
	AvgCPU float64

	// AvgMemory is the windowed average memory utilization, 0-100.
	AvgMemory float64

	// ErrorRate is failed tasks over total tasks, 0-1.
	ErrorRate float64

	// OverflowCreated is the number of overflow connections the pool had
	// to create because every pooled connection was leased.
	OverflowCreated int
}

// Suggest inspects a finished run and returns tuning advisories together
// with a candidate config incorporating them. The advice is never applied
// automatically; callers decide what to do with it. An empty advisory
// list means the run stayed within normal operating bounds, and the
// returned config equals the input.
func Suggest(in Inputs) ([]string, config.RunConfig) {
	tuned := in.Config
	var advice []string

	if in.AvgCPU > highCPUThreshold {
		target := max(1, in.Config.MaxConcurrentTasks/2)
		tuned.MaxConcurrentTasks = target
		advice = append(advice, fmt.Sprintf(
			"average CPU %.0f%% exceeded %.0f%%: reduce max_concurrent_tasks from %d to %d",
			in.AvgCPU, highCPUThreshold, in.Config.MaxConcurrentTasks, target))
	} else if in.AvgCPU > 0 && in.AvgCPU < lowCPUThreshold && in.ErrorRate == 0 && in.Config.MaxConcurrentTasks < config.MaxConcurrency {
		target := min(config.MaxConcurrency, in.Config.MaxConcurrentTasks+2)
		tuned.MaxConcurrentTasks = target
		advice = append(advice, fmt.Sprintf(
			"average CPU %.0f%% with no failures: headroom to raise max_concurrent_tasks from %d to %d",
			in.AvgCPU, in.Config.MaxConcurrentTasks, target))
	}

	if in.OverflowCreated > 0 {
		target := min(config.MaxPoolSize, in.Config.ConnectionPoolSize+in.OverflowCreated)
		tuned.ConnectionPoolSize = target
		advice = append(advice, fmt.Sprintf(
			"pool overflowed %d time(s): increase connection_pool_size from %d to %d",
			in.OverflowCreated, in.Config.ConnectionPoolSize, target))
	}

	if in.ErrorRate >= highErrorThreshold {
		target := max(1, in.Config.CircuitBreakerThreshold/2)
		tuned.CircuitBreakerThreshold = target
		advice = append(advice, fmt.Sprintf(
			"error rate %.0f%%: lower circuit_breaker_threshold from %d to %d to fail faster, and check the invoker",
			in.ErrorRate*100, in.Config.CircuitBreakerThreshold, target))
	}

	if in.AvgMemory > highMemThreshold {
		target := max(1, in.Config.BatchSize/2)
		tuned.BatchSize = target
		advice = append(advice, fmt.Sprintf(
			"average memory %.0f%% exceeded %.0f%%: reduce batch_size from %d to %d",
			in.AvgMemory, highMemThreshold, in.Config.BatchSize, target))
	}

	return advice, tuned
}
