// Package breaker implements the circuit breaker that gates task
// invocations. After a run of consecutive failures the breaker opens and
// rejects calls without invoking them, giving the failing operation a
// recovery window before probing it again.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/logging"
)

// State represents the breaker's position in its lifecycle.
type State string

const (
	// StateClosed is the normal state: calls pass through.
	StateClosed State = "closed"

	// StateOpen means the failure threshold was reached: calls are
	// rejected until the recovery timeout elapses.
	StateOpen State = "open"

	// StateHalfOpen means the recovery timeout elapsed and the next call
	// is allowed through as a probe. Success closes the breaker; failure
	// reopens it.
	StateHalfOpen State = "half-open"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Operation is the unit of work the breaker guards.
type Operation func(ctx context.Context) (string, error)

// Breaker is a mutex-guarded circuit breaker. One breaker guards all task
// invocations of an executor; any error counts as a failure, with no
// discrimination by error type.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	lastFailure     time.Time
	threshold       int
	recoveryTimeout time.Duration

	logger *logging.Logger
	bus    *event.Bus
}

// New creates a closed Breaker that opens after threshold consecutive
// failures and allows a probe call once recoveryTimeout has elapsed since
// the last failure. The bus may be nil when transition events are not
// needed.
func New(threshold int, recoveryTimeout time.Duration, logger *logging.Logger, bus *event.Bus) *Breaker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Breaker{
		state:           StateClosed,
		threshold:       threshold,
		recoveryTimeout: recoveryTimeout,
		logger:          logger.WithComponent("breaker"),
		bus:             bus,
	}
}

// Call runs op through the breaker. When the breaker is open and the
// recovery timeout has not elapsed, Call fails fast with a wrapped
// ErrCircuitOpen and op is never invoked. Otherwise op runs and its
// outcome drives the state machine: any error increments the failure
// count (tripping the breaker at the threshold), a success in the
// half-open state closes the breaker and zeroes the count.
func (b *Breaker) Call(ctx context.Context, op Operation) (string, error) {
	if err := b.allow(); err != nil {
		return "", err
	}

	output, err := op(ctx)
	if err != nil {
		b.recordFailure()
		return "", err
	}

	b.recordSuccess()
	return output, nil
}

// allow decides whether a call may proceed, transitioning Open to HalfOpen
// when the recovery timeout has elapsed.
func (b *Breaker) allow() error {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			b.mu.Unlock()
			b.logger.Info("circuit breaker half-open, allowing probe call")
			return nil
		}
		failures := b.failures
		b.mu.Unlock()
		return errors.Wrapf(errors.ErrCircuitOpen, "rejecting call after %d consecutive failures", failures)
	}

	b.mu.Unlock()
	return nil
}

// recordFailure counts a failed call and opens the breaker when the
// threshold is reached or a half-open probe fails.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	b.failures++
	b.lastFailure = time.Now()

	opened := false
	switch {
	case b.state == StateHalfOpen:
		b.state = StateOpen
		opened = true
	case b.state == StateClosed && b.failures >= b.threshold:
		b.state = StateOpen
		opened = true
	}
	failures := b.failures
	b.mu.Unlock()

	if opened {
		b.logger.Warn("circuit breaker opened", "failures", failures, "recovery_timeout", b.recoveryTimeout.String())
		if b.bus != nil {
			b.bus.Publish(event.NewBreakerOpenedEvent(failures))
		}
	}
}

// recordSuccess closes the breaker after a successful half-open probe.
// A success while closed does not reset the failure count; only recovery
// through the half-open probe zeroes it.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	closed := false
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = 0
		closed = true
	}
	b.mu.Unlock()

	if closed {
		b.logger.Info("circuit breaker closed after successful probe")
		if b.bus != nil {
			b.bus.Publish(event.NewBreakerClosedEvent())
		}
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset returns the breaker to the closed state with a zeroed failure
// count, for reusing an executor across runs.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.state = StateClosed
	b.failures = 0
	b.lastFailure = time.Time{}
	b.mu.Unlock()
}
