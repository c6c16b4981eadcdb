package scaling

import (
	"fmt"
	"sync"
	"time"
)

// Default policy values.
const (
	defaultMaxWorkers       = 8
	defaultGrowCPUThreshold = 50.0
	defaultCooldownPeriod   = time.Duration(0)
)

// Option configures a Policy.
type Option func(*Policy)

// WithMaxWorkers sets the worker count the policy will never grow past.
func WithMaxWorkers(n int) Option {
	return func(p *Policy) { p.maxWorkers = n }
}

// WithGrowCPUThreshold sets the CPU utilization (0-100) at or above which
// growing is suppressed even when the queue has a backlog.
func WithGrowCPUThreshold(pct float64) Option {
	return func(p *Policy) { p.growCPUThreshold = pct }
}

// WithCooldownPeriod sets the minimum time between grow decisions. Zero
// disables the cooldown; callers that evaluate on a fixed tick usually
// rely on the tick itself for pacing.
func WithCooldownPeriod(d time.Duration) Option {
	return func(p *Policy) { p.cooldownPeriod = d }
}

// Policy decides when the adaptive mode should add workers. Growing is the
// only action it recommends: workers shed themselves by idling out, so a
// shrink decision would race the natural decay.
// It is safe for concurrent use.
type Policy struct {
	mu               sync.Mutex
	maxWorkers       int
	growCPUThreshold float64
	cooldownPeriod   time.Duration
	lastGrowTime     time.Time
}

// NewPolicy creates a Policy with the given options.
// Unset options use defaults.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		maxWorkers:       defaultMaxWorkers,
		growCPUThreshold: defaultGrowCPUThreshold,
		cooldownPeriod:   defaultCooldownPeriod,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate inspects the snapshot and returns a scaling decision. A grow is
// recommended only when the queue has more waiting tasks than there are
// workers, CPU sits below the threshold, and the worker cap leaves room.
// Grows are one worker at a time.
func (p *Policy) Evaluate(snap Snapshot) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	if p.cooldownPeriod > 0 && !p.lastGrowTime.IsZero() && now.Sub(p.lastGrowTime) < p.cooldownPeriod {
		return Decision{
			Action: ActionNone,
			Reason: "cooldown period active",
		}
	}

	if snap.Workers >= p.maxWorkers {
		return Decision{
			Action: ActionNone,
			Reason: fmt.Sprintf("worker cap reached (%d)", p.maxWorkers),
		}
	}

	if snap.QueueDepth <= snap.Workers {
		return Decision{
			Action: ActionNone,
			Reason: fmt.Sprintf("%d queued with %d workers, no backlog", snap.QueueDepth, snap.Workers),
		}
	}

	if snap.CPUPercent >= p.growCPUThreshold {
		return Decision{
			Action: ActionNone,
			Reason: fmt.Sprintf("cpu at %.0f%% (threshold: %.0f%%)", snap.CPUPercent, p.growCPUThreshold),
		}
	}

	p.lastGrowTime = now
	return Decision{
		Action: ActionGrow,
		Delta:  1,
		Reason: fmt.Sprintf("%d queued with %d workers and cpu at %.0f%%", snap.QueueDepth, snap.Workers, snap.CPUPercent),
	}
}
