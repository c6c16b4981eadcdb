package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "run.connection_pool_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Hard ceilings shared with the tuning advisor, which must never suggest
// a config that fails validation.
const (
	// MaxConcurrency is the largest allowed max_concurrent_tasks value.
	MaxConcurrency = 256

	// MaxPoolSize is the largest allowed connection_pool_size value.
	MaxPoolSize = 1000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Run config
	errors = append(errors, c.Run.Validate()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// Validate checks the RunConfig for invalid values. It is exported separately
// because library callers construct a RunConfig without the surrounding
// Config and the executor validates it at construction.
func (c *RunConfig) Validate() []ValidationError {
	var errors []ValidationError

	if c.MaxConcurrentTasks < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.max_concurrent_tasks",
			Value:   c.MaxConcurrentTasks,
			Message: "must be at least 1",
		})
	}
	if c.MaxConcurrentTasks > MaxConcurrency {
		errors = append(errors, ValidationError{
			Field:   "run.max_concurrent_tasks",
			Value:   c.MaxConcurrentTasks,
			Message: fmt.Sprintf("exceeds maximum of %d", MaxConcurrency),
		})
	}

	// One day is a generous ceiling for a single task attempt
	const maxTaskTimeoutSeconds = 86400
	if c.TaskTimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.task_timeout_seconds",
			Value:   c.TaskTimeoutSeconds,
			Message: "must be at least 1 second",
		})
	}
	if c.TaskTimeoutSeconds > maxTaskTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "run.task_timeout_seconds",
			Value:   c.TaskTimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxTaskTimeoutSeconds),
		})
	}

	const maxBatchSize = 100
	if c.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.batch_size",
			Value:   c.BatchSize,
			Message: "must be at least 1",
		})
	}
	if c.BatchSize > maxBatchSize {
		errors = append(errors, ValidationError{
			Field:   "run.batch_size",
			Value:   c.BatchSize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxBatchSize),
		})
	}

	const maxRetries = 10
	if c.RetryCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.retry_count",
			Value:   c.RetryCount,
			Message: "must be non-negative (0 disables retries)",
		})
	}
	if c.RetryCount > maxRetries {
		errors = append(errors, ValidationError{
			Field:   "run.retry_count",
			Value:   c.RetryCount,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRetries),
		})
	}

	if c.CircuitBreakerThreshold < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.circuit_breaker_threshold",
			Value:   c.CircuitBreakerThreshold,
			Message: "must be at least 1",
		})
	}

	if c.ConnectionPoolSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.connection_pool_size",
			Value:   c.ConnectionPoolSize,
			Message: "must be at least 1",
		})
	}
	if c.ConnectionPoolSize > MaxPoolSize {
		errors = append(errors, ValidationError{
			Field:   "run.connection_pool_size",
			Value:   c.ConnectionPoolSize,
			Message: fmt.Sprintf("exceeds maximum of %d", MaxPoolSize),
		})
	}

	if c.RecoveryTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.recovery_timeout_seconds",
			Value:   c.RecoveryTimeoutSeconds,
			Message: "must be non-negative (0 allows an immediate recovery probe)",
		})
	}

	if c.AcquireTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.acquire_timeout_seconds",
			Value:   c.AcquireTimeoutSeconds,
			Message: "must be non-negative (0 overflows without waiting)",
		})
	}

	const minSampleIntervalMs = 10
	const maxSampleIntervalMs = 60000
	if c.SampleIntervalMs < minSampleIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "run.sample_interval_ms",
			Value:   c.SampleIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minSampleIntervalMs),
		})
	}
	if c.SampleIntervalMs > maxSampleIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "run.sample_interval_ms",
			Value:   c.SampleIntervalMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxSampleIntervalMs),
		})
	}

	const maxHistorySize = 1_000_000
	if c.HistorySize < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.history_size",
			Value:   c.HistorySize,
			Message: "must be at least 1",
		})
	}
	if c.HistorySize > maxHistorySize {
		errors = append(errors, ValidationError{
			Field:   "run.history_size",
			Value:   c.HistorySize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxHistorySize),
		})
	}

	if c.WorkerIdleTimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.worker_idle_timeout_seconds",
			Value:   c.WorkerIdleTimeoutSeconds,
			Message: "must be at least 1 second",
		})
	}

	const maxBatchPauseMs = 60000
	if c.BatchPauseMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.batch_pause_ms",
			Value:   c.BatchPauseMs,
			Message: "must be non-negative",
		})
	}
	if c.BatchPauseMs > maxBatchPauseMs {
		errors = append(errors, ValidationError{
			Field:   "run.batch_pause_ms",
			Value:   c.BatchPauseMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxBatchPauseMs),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
