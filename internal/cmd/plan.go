package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Iron-Ham/gearshift/internal/config"
	"github.com/Iron-Ham/gearshift/internal/engine"
	"github.com/Iron-Ham/gearshift/internal/manifest"
	"github.com/Iron-Ham/gearshift/internal/task"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <manifest.yaml>",
	Short: "Preview how a manifest would execute without running it",
	Long: `Show the execution mode the engine would pick for a manifest right now,
plus the dependency-ordered batches a pipeline run would admit. Nothing
is executed.

With --watch the preview re-renders whenever the manifest file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

var planWatch bool // Re-render the preview on manifest changes

func init() {
	planCmd.Flags().BoolVar(&planWatch, "watch", false, "re-render the plan whenever the manifest changes")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	path := args[0]
	m, err := manifest.Load(path)
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

	// Planning never invokes tasks; the executor only contributes its
	// resource monitor to mode selection.
	noop := engine.InvokerFunc(func(context.Context, task.Task) (string, error) {
		return "", nil
	})
	eng, err := engine.New(noop, m.Run.Apply(cfg.Run), engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	defer eng.Shutdown()

	// Give the monitor a moment to take its first sample so mode
	// selection can see host load.
	time.Sleep(50 * time.Millisecond)

	fmt.Print(eng.Plan(m.EngineTasks()))
	if !planWatch {
		return nil
	}

	w, err := manifest.NewWatcher(path, logger)
	if err != nil {
		return fmt.Errorf("failed to watch manifest: %w", err)
	}
	defer w.Stop()
	w.OnChange(func(m *manifest.Manifest) {
		fmt.Print(eng.Plan(m.EngineTasks()))
	})
	w.Start()

	fmt.Println("Watching for manifest changes, Ctrl-C to stop.")
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	fmt.Println()
	return nil
}
