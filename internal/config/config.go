package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete gearshift configuration
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RunConfig controls how the engine executes a batch of tasks. A RunConfig
// is supplied at executor construction and may be replaced wholesale between
// runs; it is never mutated mid-run (the executor copies it at Run entry).
type RunConfig struct {
	// MaxConcurrentTasks bounds in-flight invocations in parallel, pipeline,
	// and adaptive modes (default: 8)
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks"`

	// TaskTimeoutSeconds is the per-attempt invocation timeout in seconds (default: 300)
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds"`

	// BatchSize is the number of tasks admitted per pipeline batch (default: 4)
	BatchSize int `mapstructure:"batch_size"`

	// RetryCount is the maximum number of retries per task after the first
	// attempt (default: 3)
	RetryCount int `mapstructure:"retry_count"`

	// CircuitBreakerThreshold is the consecutive-failure count that trips
	// the breaker open (default: 5)
	CircuitBreakerThreshold int `mapstructure:"circuit_breaker_threshold"`

	// ConnectionPoolSize is the number of pooled execution contexts created
	// up front (default: 10). Must be positive.
	ConnectionPoolSize int `mapstructure:"connection_pool_size"`

	// RecoveryTimeoutSeconds is how long the breaker stays open before
	// allowing a half-open probe call, in seconds (default: 30)
	RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds"`

	// AcquireTimeoutSeconds is how long a pool acquire waits before falling
	// back to an overflow connection, in seconds (default: 10)
	AcquireTimeoutSeconds int `mapstructure:"acquire_timeout_seconds"`

	// SampleIntervalMs is the resource-monitor sampling interval in
	// milliseconds; the adaptive controller ticks on the same interval
	// (default: 1000)
	SampleIntervalMs int `mapstructure:"sample_interval_ms"`

	// HistorySize caps the resource monitor's rolling sample buffer
	// (default: 1000)
	HistorySize int `mapstructure:"history_size"`

	// WorkerIdleTimeoutSeconds is how long an adaptive worker waits for work
	// before exiting, in seconds (default: 5)
	WorkerIdleTimeoutSeconds int `mapstructure:"worker_idle_timeout_seconds"`

	// BatchPauseMs is the pause between pipeline batches in milliseconds
	// (default: 100)
	BatchPauseMs int `mapstructure:"batch_pause_ms"`

	// StrictDependencies controls pipeline behavior when tasks remain but
	// none are admissible (cycle or missing dependency). When false
	// (default), the remainder is force-admitted with a warning; when true,
	// the remainder fails with a dependency error.
	StrictDependencies bool `mapstructure:"strict_dependencies"`
}

// LoggingConfig controls structured logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// File is the log file path; empty logs to stderr (default: "")
	File string `mapstructure:"file"`
}

// TaskTimeout returns the per-attempt invocation timeout as a time.Duration
func (c *RunConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// RecoveryTimeout returns the breaker recovery window as a time.Duration
func (c *RunConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutSeconds) * time.Second
}

// AcquireTimeout returns the pool acquire wait bound as a time.Duration
func (c *RunConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSeconds) * time.Second
}

// SampleInterval returns the monitor sampling interval as a time.Duration
func (c *RunConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

// WorkerIdleTimeout returns the adaptive worker idle bound as a time.Duration
func (c *RunConfig) WorkerIdleTimeout() time.Duration {
	return time.Duration(c.WorkerIdleTimeoutSeconds) * time.Second
}

// BatchPause returns the pause between pipeline batches as a time.Duration
func (c *RunConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Run: RunConfig{
			MaxConcurrentTasks:       8,
			TaskTimeoutSeconds:       300,
			BatchSize:                4,
			RetryCount:               3,
			CircuitBreakerThreshold:  5,
			ConnectionPoolSize:       10,
			RecoveryTimeoutSeconds:   30,
			AcquireTimeoutSeconds:    10,
			SampleIntervalMs:         1000,
			HistorySize:              1000,
			WorkerIdleTimeoutSeconds: 5,
			BatchPauseMs:             100,
			StrictDependencies:       false,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			File:    "",
		},
	}
}

// DefaultRun returns the default run configuration on its own, for callers
// using the engine as a library without viper.
func DefaultRun() RunConfig {
	return Default().Run
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Run defaults
	viper.SetDefault("run.max_concurrent_tasks", defaults.Run.MaxConcurrentTasks)
	viper.SetDefault("run.task_timeout_seconds", defaults.Run.TaskTimeoutSeconds)
	viper.SetDefault("run.batch_size", defaults.Run.BatchSize)
	viper.SetDefault("run.retry_count", defaults.Run.RetryCount)
	viper.SetDefault("run.circuit_breaker_threshold", defaults.Run.CircuitBreakerThreshold)
	viper.SetDefault("run.connection_pool_size", defaults.Run.ConnectionPoolSize)
	viper.SetDefault("run.recovery_timeout_seconds", defaults.Run.RecoveryTimeoutSeconds)
	viper.SetDefault("run.acquire_timeout_seconds", defaults.Run.AcquireTimeoutSeconds)
	viper.SetDefault("run.sample_interval_ms", defaults.Run.SampleIntervalMs)
	viper.SetDefault("run.history_size", defaults.Run.HistorySize)
	viper.SetDefault("run.worker_idle_timeout_seconds", defaults.Run.WorkerIdleTimeoutSeconds)
	viper.SetDefault("run.batch_pause_ms", defaults.Run.BatchPauseMs)
	viper.SetDefault("run.strict_dependencies", defaults.Run.StrictDependencies)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gearshift")
	}
	// Fall back to ~/.config/gearshift
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gearshift"
	}
	return filepath.Join(home, ".config", "gearshift")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
