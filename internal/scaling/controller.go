package scaling

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/logging"
)

// Controller drives the adaptive mode's grow loop. On every tick it takes
// a snapshot of the run, applies the scaling policy, and on a grow
// decision publishes a scaling.decision event and invokes the registered
// handlers.
type Controller struct {
	mu       sync.Mutex
	policy   *Policy
	interval time.Duration
	snapshot func() Snapshot
	bus      *event.Bus
	logger   *logging.Logger
	handlers []func(Decision)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewController creates a Controller that evaluates policy against the
// snapshot function every interval. The bus may be nil when no observers
// care about scaling events.
func NewController(policy *Policy, interval time.Duration, snapshot func() Snapshot, bus *event.Bus, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Controller{
		policy:   policy,
		interval: interval,
		snapshot: snapshot,
		bus:      bus,
		logger:   logger.WithComponent("scaling"),
	}
}

// OnDecision registers a callback invoked for every grow decision.
// Multiple handlers may be registered; registration is not safe once the
// controller has started.
func (c *Controller) OnDecision(handler func(Decision)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Start launches the evaluation loop in a background goroutine. Calling
// Start on a running controller is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evaluate()
			}
		}
	}()
}

// Stop ends the evaluation loop and waits for it to exit. Safe to call
// more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// evaluate applies the policy to a fresh snapshot and fans out any grow
// decision to the bus and registered handlers.
func (c *Controller) evaluate() {
	snap := c.snapshot()

	c.mu.Lock()
	handlers := make([]func(Decision), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	decision := c.policy.Evaluate(snap)
	if decision.Action == ActionNone {
		return
	}

	c.logger.Info("scaling decision",
		"action", decision.Action.String(),
		"delta", decision.Delta,
		"reason", decision.Reason,
		"workers", snap.Workers,
	)
	if c.bus != nil {
		c.bus.Publish(event.NewScalingDecisionEvent(
			decision.Action.String(), decision.Delta, decision.Reason, snap.Workers,
		))
	}
	for _, h := range handlers {
		h(decision)
	}
}
