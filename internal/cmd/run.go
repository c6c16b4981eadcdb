package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Iron-Ham/gearshift/internal/config"
	"github.com/Iron-Ham/gearshift/internal/engine"
	"github.com/Iron-Ham/gearshift/internal/manifest"
	"github.com/Iron-Ham/gearshift/internal/task"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest.yaml>",
	Short: "Execute the tasks in a manifest",
	Long: `Load a task manifest, pick an execution mode for the batch, and run it.

Each task's description is executed as a shell command; with --simulate
nothing is executed and each task instead sleeps out its estimated_cost.
The manifest may override run configuration inline under a "run:" key.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runSimulate    bool // Sleep out estimated costs instead of running commands
	runJSON        bool // Output the report as JSON
	runFailOnError bool // Exit non-zero when any task fails
)

func init() {
	runCmd.Flags().BoolVar(&runSimulate, "simulate", false, "simulate execution, sleeping each task's estimated_cost")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output the run report as JSON")
	runCmd.Flags().BoolVar(&runFailOnError, "fail-on-error", false, "exit with an error if any task fails")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	invoker := shellInvoker()
	if runSimulate {
		invoker = simulatedInvoker()
	}

	eng, err := engine.New(invoker, m.Run.Apply(cfg.Run), engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	defer eng.Shutdown()

	// Ctrl-C cancels the run; the report still accounts for every task.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := eng.Run(ctx, m.EngineTasks())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if runJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(report)
	}

	if runFailOnError && report.Failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", report.Failed, report.Total)
	}
	return nil
}

// shellInvoker executes each task's description as a shell command and
// returns its combined output. Tasks without a description succeed with a
// note instead of invoking anything.
func shellInvoker() engine.Invoker {
	return engine.InvokerFunc(func(ctx context.Context, t task.Task) (string, error) {
		if t.Description == "" {
			return fmt.Sprintf("task %s has no command", t.ID), nil
		}
		out, err := exec.CommandContext(ctx, "sh", "-c", t.Description).CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return strings.TrimSpace(string(out)), nil
	})
}

// simulatedInvoker sleeps out each task's estimated cost without running
// anything, for rehearsing a manifest before committing to it.
func simulatedInvoker() engine.Invoker {
	return engine.InvokerFunc(func(ctx context.Context, t task.Task) (string, error) {
		cost := t.EstimatedCost
		if cost <= 0 {
			cost = 100 * time.Millisecond
		}
		select {
		case <-time.After(cost):
			return fmt.Sprintf("simulated %s in %s", t.ID, cost), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}
