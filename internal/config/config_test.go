package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default run config
	if cfg.Run.MaxConcurrentTasks != 8 {
		t.Errorf("Run.MaxConcurrentTasks = %d, want 8", cfg.Run.MaxConcurrentTasks)
	}
	if cfg.Run.TaskTimeoutSeconds != 300 {
		t.Errorf("Run.TaskTimeoutSeconds = %d, want 300", cfg.Run.TaskTimeoutSeconds)
	}
	if cfg.Run.BatchSize != 4 {
		t.Errorf("Run.BatchSize = %d, want 4", cfg.Run.BatchSize)
	}
	if cfg.Run.RetryCount != 3 {
		t.Errorf("Run.RetryCount = %d, want 3", cfg.Run.RetryCount)
	}
	if cfg.Run.CircuitBreakerThreshold != 5 {
		t.Errorf("Run.CircuitBreakerThreshold = %d, want 5", cfg.Run.CircuitBreakerThreshold)
	}
	if cfg.Run.ConnectionPoolSize != 10 {
		t.Errorf("Run.ConnectionPoolSize = %d, want 10", cfg.Run.ConnectionPoolSize)
	}
	if cfg.Run.RecoveryTimeoutSeconds != 30 {
		t.Errorf("Run.RecoveryTimeoutSeconds = %d, want 30", cfg.Run.RecoveryTimeoutSeconds)
	}
	if cfg.Run.AcquireTimeoutSeconds != 10 {
		t.Errorf("Run.AcquireTimeoutSeconds = %d, want 10", cfg.Run.AcquireTimeoutSeconds)
	}
	if cfg.Run.SampleIntervalMs != 1000 {
		t.Errorf("Run.SampleIntervalMs = %d, want 1000", cfg.Run.SampleIntervalMs)
	}
	if cfg.Run.HistorySize != 1000 {
		t.Errorf("Run.HistorySize = %d, want 1000", cfg.Run.HistorySize)
	}
	if cfg.Run.WorkerIdleTimeoutSeconds != 5 {
		t.Errorf("Run.WorkerIdleTimeoutSeconds = %d, want 5", cfg.Run.WorkerIdleTimeoutSeconds)
	}
	if cfg.Run.BatchPauseMs != 100 {
		t.Errorf("Run.BatchPauseMs = %d, want 100", cfg.Run.BatchPauseMs)
	}
	if cfg.Run.StrictDependencies {
		t.Error("Run.StrictDependencies should be false by default")
	}

	// Verify default logging config
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestRunConfig_DurationAccessors(t *testing.T) {
	cfg := RunConfig{
		TaskTimeoutSeconds:       300,
		RecoveryTimeoutSeconds:   30,
		AcquireTimeoutSeconds:    10,
		SampleIntervalMs:         250,
		WorkerIdleTimeoutSeconds: 5,
		BatchPauseMs:             100,
	}

	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"TaskTimeout", cfg.TaskTimeout(), 300 * time.Second},
		{"RecoveryTimeout", cfg.RecoveryTimeout(), 30 * time.Second},
		{"AcquireTimeout", cfg.AcquireTimeout(), 10 * time.Second},
		{"SampleInterval", cfg.SampleInterval(), 250 * time.Millisecond},
		{"WorkerIdleTimeout", cfg.WorkerIdleTimeout(), 5 * time.Second},
		{"BatchPause", cfg.BatchPause(), 100 * time.Millisecond},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
		}
	}
}

func TestDefaultRun(t *testing.T) {
	run := DefaultRun()
	if run.MaxConcurrentTasks != 8 {
		t.Errorf("DefaultRun().MaxConcurrentTasks = %d, want 8", run.MaxConcurrentTasks)
	}
	if errs := run.Validate(); len(errs) != 0 {
		t.Errorf("DefaultRun() should be valid, got: %v", errs)
	}
}

func TestSetDefaultsAndLoad(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with pure defaults failed: %v", err)
	}

	if cfg.Run.MaxConcurrentTasks != 8 {
		t.Errorf("loaded Run.MaxConcurrentTasks = %d, want 8", cfg.Run.MaxConcurrentTasks)
	}
	if cfg.Run.ConnectionPoolSize != 10 {
		t.Errorf("loaded Run.ConnectionPoolSize = %d, want 10", cfg.Run.ConnectionPoolSize)
	}
}

func TestLoad_OverrideAndValidationFailure(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	viper.Set("run.connection_pool_size", -1)

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail for a negative pool size")
	}
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	viper.Set("run.batch_size", 0)

	// Invalid config: Get should fall back rather than error
	cfg := Get()
	if cfg.Run.BatchSize != 4 {
		t.Errorf("Get() fallback Run.BatchSize = %d, want default 4", cfg.Run.BatchSize)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir := ConfigDir()
	if dir != "/tmp/xdg-test/gearshift" {
		t.Errorf("ConfigDir() = %q, want %q", dir, "/tmp/xdg-test/gearshift")
	}
}
