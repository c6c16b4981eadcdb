package breaker

import (
	"context"
	"testing"
	"time"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/logging"
)

func newTestBreaker(threshold int, recovery time.Duration) *Breaker {
	return New(threshold, recovery, logging.NopLogger(), nil)
}

func failingOp(ctx context.Context) (string, error) {
	return "", errors.New("operation failed")
}

func succeedingOp(ctx context.Context) (string, error) {
	return "ok", nil
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := newTestBreaker(3, time.Minute)

	out, err := b.Call(context.Background(), succeedingOp)
	if err != nil {
		t.Fatalf("Call() error = %v, want nil", err)
	}
	if out != "ok" {
		t.Errorf("Call() output = %q, want %q", out, "ok")
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	invocations := 0
	op := func(ctx context.Context) (string, error) {
		invocations++
		return "", errors.New("boom")
	}

	// First three calls invoke the operation and fail
	for i := 0; i < 3; i++ {
		if _, err := b.Call(ctx, op); err == nil {
			t.Fatalf("call %d should have failed", i+1)
		}
	}

	if got := b.State(); got != StateOpen {
		t.Fatalf("State() after %d failures = %v, want %v", 3, got, StateOpen)
	}
	if got := b.Failures(); got != 3 {
		t.Errorf("Failures() = %d, want 3", got)
	}

	// Fourth call is rejected without invoking the operation
	_, err := b.Call(ctx, op)
	if err == nil {
		t.Fatal("call while open should be rejected")
	}
	if !errors.Is(err, errors.ErrCircuitOpen) {
		t.Errorf("rejection error = %v, want wrapped ErrCircuitOpen", err)
	}
	if !errors.IsCircuitOpen(err) {
		t.Errorf("IsCircuitOpen(%v) = false, want true", err)
	}
	if invocations != 3 {
		t.Errorf("operation invoked %d times, want exactly 3", invocations)
	}
}

func TestBreaker_BelowThresholdStaysClosed(t *testing.T) {
	b := newTestBreaker(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		b.Call(ctx, failingOp)
	}

	if got := b.State(); got != StateClosed {
		t.Errorf("State() after 4 of 5 failures = %v, want %v", got, StateClosed)
	}
	if got := b.Failures(); got != 4 {
		t.Errorf("Failures() = %d, want 4", got)
	}
}

func TestBreaker_SuccessWhileClosedKeepsCounter(t *testing.T) {
	b := newTestBreaker(5, time.Minute)
	ctx := context.Background()

	b.Call(ctx, failingOp)
	b.Call(ctx, failingOp)
	b.Call(ctx, succeedingOp)

	// The counter is zeroed only by recovery through a half-open probe
	if got := b.Failures(); got != 2 {
		t.Errorf("Failures() after success while closed = %d, want 2", got)
	}
}

func TestBreaker_RecoveryToClosed(t *testing.T) {
	b := newTestBreaker(2, 20*time.Millisecond)
	ctx := context.Background()

	b.Call(ctx, failingOp)
	b.Call(ctx, failingOp)
	if got := b.State(); got != StateOpen {
		t.Fatalf("State() = %v, want %v", got, StateOpen)
	}

	// Within the recovery window: still rejecting
	if _, err := b.Call(ctx, succeedingOp); !errors.IsCircuitOpen(err) {
		t.Fatalf("call inside recovery window: err = %v, want circuit-open rejection", err)
	}

	time.Sleep(30 * time.Millisecond)

	// Past the window: the probe is allowed and closes the breaker
	out, err := b.Call(ctx, succeedingOp)
	if err != nil {
		t.Fatalf("probe call error = %v, want nil", err)
	}
	if out != "ok" {
		t.Errorf("probe output = %q, want %q", out, "ok")
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("State() after successful probe = %v, want %v", got, StateClosed)
	}
	if got := b.Failures(); got != 0 {
		t.Errorf("Failures() after recovery = %d, want 0", got)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := newTestBreaker(2, 10*time.Millisecond)
	ctx := context.Background()

	b.Call(ctx, failingOp)
	b.Call(ctx, failingOp)

	time.Sleep(20 * time.Millisecond)

	if _, err := b.Call(ctx, failingOp); err == nil {
		t.Fatal("failing probe should return its error")
	}
	if got := b.State(); got != StateOpen {
		t.Errorf("State() after failed probe = %v, want %v", got, StateOpen)
	}

	// Immediately after reopening, calls are rejected again
	if _, err := b.Call(ctx, succeedingOp); !errors.IsCircuitOpen(err) {
		t.Errorf("call after failed probe: err = %v, want circuit-open rejection", err)
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	b.Call(ctx, failingOp)
	if got := b.State(); got != StateOpen {
		t.Fatalf("State() = %v, want %v", got, StateOpen)
	}

	b.Reset()

	if got := b.State(); got != StateClosed {
		t.Errorf("State() after Reset = %v, want %v", got, StateClosed)
	}
	if got := b.Failures(); got != 0 {
		t.Errorf("Failures() after Reset = %d, want 0", got)
	}
	if _, err := b.Call(ctx, succeedingOp); err != nil {
		t.Errorf("Call() after Reset error = %v, want nil", err)
	}
}

func TestBreaker_PublishesTransitionEvents(t *testing.T) {
	bus := event.NewBus()
	var types []string
	bus.SubscribeAll(func(e event.Event) {
		types = append(types, e.EventType())
	})

	b := New(1, 10*time.Millisecond, logging.NopLogger(), bus)
	ctx := context.Background()

	b.Call(ctx, failingOp)
	time.Sleep(20 * time.Millisecond)
	b.Call(ctx, succeedingOp)

	want := []string{"breaker.opened", "breaker.closed"}
	if len(types) != len(want) {
		t.Fatalf("published events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, types[i], want[i])
		}
	}
}
