package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/gearshift/internal/task"
)

func TestRun_ParallelResultsInSubmissionOrder(t *testing.T) {
	var mu sync.Mutex
	var finished []string
	inv := InvokerFunc(func(ctx context.Context, tk task.Task) (string, error) {
		d := 5 * time.Millisecond
		if tk.ID == "t1" {
			d = 60 * time.Millisecond
		}
		time.Sleep(d)
		mu.Lock()
		finished = append(finished, tk.ID)
		mu.Unlock()
		return "ok", nil
	})
	e := newTestExecutor(t, testConfig(), inv)

	tasks := makeTasks(4)
	report, err := e.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if report.Mode != task.ModeParallel {
		t.Errorf("Mode = %v, want %v", report.Mode, task.ModeParallel)
	}
	mu.Lock()
	last := finished[len(finished)-1]
	mu.Unlock()
	if last != "t1" {
		t.Fatalf("slowest task finished %q last, want t1 (tasks should overlap)", last)
	}
	for i, res := range report.Results {
		if res.TaskID != tasks[i].ID {
			t.Errorf("Results[%d].TaskID = %q, want %q (submission order)", i, res.TaskID, tasks[i].ID)
		}
	}
}

func TestRun_ParallelBoundsConcurrency(t *testing.T) {
	var gauge concurrencyGauge
	inv := InvokerFunc(func(ctx context.Context, tk task.Task) (string, error) {
		gauge.enter()
		defer gauge.exit()
		time.Sleep(30 * time.Millisecond)
		return "ok", nil
	})

	cfg := testConfig()
	cfg.MaxConcurrentTasks = 2
	e := newTestExecutor(t, cfg, inv)

	report, err := e.Run(context.Background(), makeTasks(5))
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if report.Completed != 5 {
		t.Fatalf("Completed = %d, want 5", report.Completed)
	}
	if got := gauge.max(); got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
}

func TestRun_ParallelFailureIsolation(t *testing.T) {
	e := newTestExecutor(t, testConfig(), failInvoker("t2"))

	report, err := e.Run(context.Background(), makeTasks(4))
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if report.Completed != 3 || report.Failed != 1 {
		t.Errorf("completed/failed = %d/%d, want 3/1 (one failure must not cancel siblings)",
			report.Completed, report.Failed)
	}
}
