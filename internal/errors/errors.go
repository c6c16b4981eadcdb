// Package errors provides centralized error definitions and error handling
// utilities for the gearshift engine. It defines the failure taxonomy used in
// per-task results, sentinel errors for the engine's components, and
// classification helpers.
//
// # Failure Taxonomy
//
// Every per-task failure carries a [Reason] so callers can distinguish the
// ways a task can go wrong:
//   - ReasonFailed: the injected invocation returned an error
//   - ReasonPanic: the injected invocation panicked
//   - ReasonTimeout: the invocation exceeded the task timeout
//   - ReasonCircuitOpen: the circuit breaker rejected the call without
//     invoking it
//   - ReasonCancelled: the run was cancelled before the task finished
//   - ReasonDependency: the task was failed by strict dependency checking
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewTaskError("invocation failed", cause).WithTaskID("t-1")
//	err := errors.Wrapf(cause, "acquire connection for task %s", taskID)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCircuitOpen) { ... }
//	if errors.IsTimeout(err) { ... }
//	switch errors.ReasonOf(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Circuit breaker sentinel errors
var (
	// ErrCircuitOpen indicates the breaker rejected a call without invoking
	// the operation. Callers can tell "we didn't even try" apart from
	// "we tried and failed".
	ErrCircuitOpen = New("circuit breaker is open")
)

// Connection pool sentinel errors
var (
	// ErrPoolClosed indicates an acquire was attempted on a shut-down pool.
	ErrPoolClosed = New("connection pool is closed")
)

// Execution sentinel errors
var (
	// ErrTaskTimeout indicates a task invocation exceeded its timeout.
	ErrTaskTimeout = New("task timed out")
	// ErrRunCancelled indicates the run's context was cancelled.
	ErrRunCancelled = New("run cancelled")
	// ErrDependencyCycle indicates a circular or unresolvable dependency
	// between tasks.
	ErrDependencyCycle = New("dependency cycle detected")
	// ErrInvalidConfig indicates construction-time misconfiguration. This is
	// the only error class that aborts a run before any task executes.
	ErrInvalidConfig = New("invalid configuration")
)

// -----------------------------------------------------------------------------
// Failure Reasons
// -----------------------------------------------------------------------------

// Reason is a short machine-readable code classifying a task failure.
type Reason string

const (
	// ReasonNone means no failure occurred.
	ReasonNone Reason = ""

	// ReasonFailed means the injected invocation returned an error.
	ReasonFailed Reason = "failed"

	// ReasonPanic means the injected invocation panicked.
	ReasonPanic Reason = "panic"

	// ReasonTimeout means the invocation exceeded the task timeout.
	ReasonTimeout Reason = "timeout"

	// ReasonCircuitOpen means the breaker rejected the call without
	// invoking it.
	ReasonCircuitOpen Reason = "circuit_open"

	// ReasonCancelled means the run was cancelled before the task finished.
	ReasonCancelled Reason = "cancelled"

	// ReasonDependency means strict dependency checking failed the task
	// because its dependencies could never be satisfied.
	ReasonDependency Reason = "dependency"
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	return string(r)
}

// -----------------------------------------------------------------------------
// Engine Error Interface
// -----------------------------------------------------------------------------

// EngineError is the base interface for gearshift errors.
// It extends the standard error interface with classification methods.
type EngineError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Task Errors
// -----------------------------------------------------------------------------

// TaskError represents a failure of a single task execution.
//
// Example:
//
//	err := errors.NewTaskError("invocation failed", cause)
//	err = err.WithTaskID("task-1").WithReason(errors.ReasonTimeout)
//	fmt.Println(err) // "task error [task=task-1, reason=timeout]: invocation failed: ..."
type TaskError struct {
	baseError
	TaskID  string
	Reason  Reason
	Attempt int
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: true,
		},
		Reason: ReasonFailed,
	}
}

// WithTaskID adds a task ID to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithReason sets the failure reason. Timeouts, breaker rejections, and
// cancellations are not retryable; plain failures and panics are.
func (e *TaskError) WithReason(r Reason) *TaskError {
	e.Reason = r
	switch r {
	case ReasonTimeout, ReasonCircuitOpen, ReasonCancelled, ReasonDependency:
		e.retryable = false
	}
	if r == ReasonCancelled {
		e.severity = SeverityInfo
	}
	return e
}

// WithAttempt records which attempt produced the error (1-based).
func (e *TaskError) WithAttempt(n int) *TaskError {
	e.Attempt = n
	return e
}

// WithSeverity sets the error severity.
func (e *TaskError) WithSeverity(s Severity) *TaskError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *TaskError) WithRetryable(r bool) *TaskError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Reason != ReasonNone {
		parts = append(parts, fmt.Sprintf("reason=%s", e.Reason))
	}
	if e.Attempt > 0 {
		parts = append(parts, fmt.Sprintf("attempt=%d", e.Attempt))
	}

	prefix := "task error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("task error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TaskError) Is(target error) bool {
	if _, ok := target.(*TaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// ReasonOf returns the failure reason carried by the error, deriving one from
// known sentinels when the error is not a *TaskError. Returns ReasonNone for
// nil and ReasonFailed for unclassified errors.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}

	var taskErr *TaskError
	if As(err, &taskErr) && taskErr.Reason != ReasonNone {
		return taskErr.Reason
	}

	switch {
	case Is(err, ErrCircuitOpen):
		return ReasonCircuitOpen
	case Is(err, ErrTaskTimeout):
		return ReasonTimeout
	case Is(err, ErrRunCancelled):
		return ReasonCancelled
	case Is(err, ErrDependencyCycle):
		return ReasonDependency
	}
	return ReasonFailed
}

// IsTimeout returns true if the error represents a task timeout.
func IsTimeout(err error) bool {
	return err != nil && ReasonOf(err) == ReasonTimeout
}

// IsCircuitOpen returns true if the error represents a breaker rejection.
func IsCircuitOpen(err error) bool {
	return err != nil && ReasonOf(err) == ReasonCircuitOpen
}

// IsCancelled returns true if the error represents run cancellation.
func IsCancelled(err error) bool {
	return err != nil && ReasonOf(err) == ReasonCancelled
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Breaker rejections, timeouts, and cancellations
// are never retried; plain invocation failures and panics are.
//
// Example:
//
//	if errors.IsRetryable(err) && attempt < maxRetries {
//	    continue
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var engineErr EngineError
	if As(err, &engineErr) {
		return engineErr.IsRetryable()
	}

	switch ReasonOf(err) {
	case ReasonCircuitOpen, ReasonTimeout, ReasonCancelled, ReasonDependency:
		return false
	}
	return true
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement EngineError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var engineErr EngineError
	if As(err, &engineErr) {
		return engineErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to acquire connection")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to run task %s", taskID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
