package scaling

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/gearshift/internal/config"
)

func TestSuggest_QuietRun(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 45, AvgMemory: 40})

	if len(advice) != 0 {
		t.Errorf("advice = %v, want none for a run within bounds", advice)
	}
	if tuned != cfg {
		t.Errorf("tuned config = %+v, want unchanged %+v", tuned, cfg)
	}
}

func TestSuggest_HighCPU(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 92})

	if len(advice) != 1 {
		t.Fatalf("got %d advisories, want 1: %v", len(advice), advice)
	}
	if !strings.Contains(advice[0], "max_concurrent_tasks") {
		t.Errorf("advice = %q, want mention of max_concurrent_tasks", advice[0])
	}
	if want := cfg.MaxConcurrentTasks / 2; tuned.MaxConcurrentTasks != want {
		t.Errorf("tuned.MaxConcurrentTasks = %d, want %d", tuned.MaxConcurrentTasks, want)
	}
}

func TestSuggest_HighCPUNeverBelowOne(t *testing.T) {
	cfg := config.DefaultRun()
	cfg.MaxConcurrentTasks = 1
	_, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 99})

	if tuned.MaxConcurrentTasks != 1 {
		t.Errorf("tuned.MaxConcurrentTasks = %d, want 1", tuned.MaxConcurrentTasks)
	}
}

func TestSuggest_LowCPUHeadroom(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 15, ErrorRate: 0})

	if len(advice) != 1 {
		t.Fatalf("got %d advisories, want 1: %v", len(advice), advice)
	}
	if tuned.MaxConcurrentTasks != cfg.MaxConcurrentTasks+2 {
		t.Errorf("tuned.MaxConcurrentTasks = %d, want %d", tuned.MaxConcurrentTasks, cfg.MaxConcurrentTasks+2)
	}
}

func TestSuggest_LowCPUWithFailuresStaysPut(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 15, ErrorRate: 0.1})

	if len(advice) != 0 {
		t.Errorf("advice = %v, want none (failures veto the headroom advisory)", advice)
	}
	if tuned.MaxConcurrentTasks != cfg.MaxConcurrentTasks {
		t.Errorf("tuned.MaxConcurrentTasks = %d, want unchanged %d", tuned.MaxConcurrentTasks, cfg.MaxConcurrentTasks)
	}
}

func TestSuggest_NoSamplesSkipsCPURules(t *testing.T) {
	cfg := config.DefaultRun()
	advice, _ := Suggest(Inputs{Config: cfg, AvgCPU: 0, ErrorRate: 0})

	if len(advice) != 0 {
		t.Errorf("advice = %v, want none when no samples were collected", advice)
	}
}

func TestSuggest_PoolOverflow(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 45, OverflowCreated: 4})

	if len(advice) != 1 {
		t.Fatalf("got %d advisories, want 1: %v", len(advice), advice)
	}
	if !strings.Contains(advice[0], "connection_pool_size") {
		t.Errorf("advice = %q, want mention of connection_pool_size", advice[0])
	}
	if want := cfg.ConnectionPoolSize + 4; tuned.ConnectionPoolSize != want {
		t.Errorf("tuned.ConnectionPoolSize = %d, want %d", tuned.ConnectionPoolSize, want)
	}
}

func TestSuggest_PoolOverflowCapped(t *testing.T) {
	cfg := config.DefaultRun()
	cfg.ConnectionPoolSize = config.MaxPoolSize - 1
	_, tuned := Suggest(Inputs{Config: cfg, OverflowCreated: 50})

	if tuned.ConnectionPoolSize != config.MaxPoolSize {
		t.Errorf("tuned.ConnectionPoolSize = %d, want cap %d", tuned.ConnectionPoolSize, config.MaxPoolSize)
	}
}

func TestSuggest_HighErrorRate(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 45, ErrorRate: 0.75})

	if len(advice) != 1 {
		t.Fatalf("got %d advisories, want 1: %v", len(advice), advice)
	}
	if !strings.Contains(advice[0], "circuit_breaker_threshold") {
		t.Errorf("advice = %q, want mention of circuit_breaker_threshold", advice[0])
	}
	if want := cfg.CircuitBreakerThreshold / 2; tuned.CircuitBreakerThreshold != want {
		t.Errorf("tuned.CircuitBreakerThreshold = %d, want %d", tuned.CircuitBreakerThreshold, want)
	}
}

func TestSuggest_HighMemory(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{Config: cfg, AvgCPU: 45, AvgMemory: 91})

	if len(advice) != 1 {
		t.Fatalf("got %d advisories, want 1: %v", len(advice), advice)
	}
	if !strings.Contains(advice[0], "batch_size") {
		t.Errorf("advice = %q, want mention of batch_size", advice[0])
	}
	if want := cfg.BatchSize / 2; tuned.BatchSize != want {
		t.Errorf("tuned.BatchSize = %d, want %d", tuned.BatchSize, want)
	}
}

func TestSuggest_CombinedSignals(t *testing.T) {
	cfg := config.DefaultRun()
	advice, tuned := Suggest(Inputs{
		Config:          cfg,
		AvgCPU:          92,
		AvgMemory:       91,
		ErrorRate:       0.6,
		OverflowCreated: 2,
	})

	if len(advice) != 4 {
		t.Fatalf("got %d advisories, want 4: %v", len(advice), advice)
	}

	// Every advisory must land in the tuned config at once.
	if tuned.MaxConcurrentTasks != cfg.MaxConcurrentTasks/2 {
		t.Errorf("tuned.MaxConcurrentTasks = %d, want %d", tuned.MaxConcurrentTasks, cfg.MaxConcurrentTasks/2)
	}
	if tuned.ConnectionPoolSize != cfg.ConnectionPoolSize+2 {
		t.Errorf("tuned.ConnectionPoolSize = %d, want %d", tuned.ConnectionPoolSize, cfg.ConnectionPoolSize+2)
	}
	if tuned.CircuitBreakerThreshold != cfg.CircuitBreakerThreshold/2 {
		t.Errorf("tuned.CircuitBreakerThreshold = %d, want %d", tuned.CircuitBreakerThreshold, cfg.CircuitBreakerThreshold/2)
	}
	if tuned.BatchSize != cfg.BatchSize/2 {
		t.Errorf("tuned.BatchSize = %d, want %d", tuned.BatchSize, cfg.BatchSize/2)
	}
}

func TestSuggest_TunedConfigAlwaysValid(t *testing.T) {
	cfg := config.DefaultRun()
	inputs := []Inputs{
		{Config: cfg, AvgCPU: 99, AvgMemory: 99, ErrorRate: 1, OverflowCreated: 5000},
		{Config: cfg, AvgCPU: 1, ErrorRate: 0},
		{Config: cfg},
	}
	for i, in := range inputs {
		_, tuned := Suggest(in)
		if errs := tuned.Validate(); len(errs) != 0 {
			t.Errorf("inputs[%d]: tuned config fails validation: %v", i, errs)
		}
	}
}
