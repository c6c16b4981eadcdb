package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/gearshift/internal/util"
)

// RunReport summarizes one completed run. Results preserve submission
// order regardless of the order tasks actually finished in.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Mode is the execution strategy the run used.
	Mode Mode `json:"mode"`

	// Total is the number of tasks submitted.
	Total int `json:"total"`

	// Completed is the number of tasks that finished successfully.
	Completed int `json:"completed"`

	// Failed is the number of tasks that failed permanently.
	Failed int `json:"failed"`

	// Cancelled is the number of tasks cancelled before finishing.
	// Completed + Failed + Cancelled == Total always holds.
	Cancelled int `json:"cancelled"`

	// Duration is the wall-clock duration of the run.
	Duration time.Duration `json:"duration"`

	// Throughput is completed tasks per second of run duration.
	Throughput float64 `json:"throughput"`

	// ErrorRate is failed tasks as a fraction of total tasks.
	ErrorRate float64 `json:"error_rate"`

	// Results holds one entry per submitted task, in submission order.
	Results []ExecutionResult `json:"results"`
}

// Finalize computes the derived Throughput and ErrorRate fields from the
// counts and duration already recorded.
func (r *RunReport) Finalize() {
	r.Throughput = 0
	if r.Duration > 0 {
		r.Throughput = float64(r.Completed) / r.Duration.Seconds()
	}
	r.ErrorRate = 0
	if r.Total > 0 {
		r.ErrorRate = float64(r.Failed) / float64(r.Total)
	}
}

// statusGlyph maps a result status to its summary-line marker.
func statusGlyph(s Status) string {
	switch s {
	case StatusCompleted:
		return "✓"
	case StatusFailed:
		return "✗"
	case StatusCancelled:
		return "⊘"
	default:
		return "?"
	}
}

// String renders the plain-text summary printed by the CLI.
func (r *RunReport) String() string {
	var b strings.Builder

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "RUN SUMMARY")
	fmt.Fprintln(&b, strings.Repeat("─", 50))
	fmt.Fprintf(&b, "Run:        %s\n", r.RunID)
	fmt.Fprintf(&b, "Mode:       %s\n", r.Mode)
	fmt.Fprintf(&b, "Duration:   %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Tasks:      %d total, %d completed, %d failed, %d cancelled\n",
		r.Total, r.Completed, r.Failed, r.Cancelled)
	fmt.Fprintf(&b, "Throughput: %.2f tasks/s\n", r.Throughput)
	fmt.Fprintf(&b, "Error rate: %.1f%%\n", r.ErrorRate*100)
	fmt.Fprintln(&b)

	if len(r.Results) == 0 {
		return b.String()
	}

	fmt.Fprintln(&b, "TASKS")
	fmt.Fprintln(&b, strings.Repeat("─", 50))
	for _, res := range r.Results {
		line := fmt.Sprintf("%s %s", statusGlyph(res.Status), res.TaskID)
		if d := res.Duration(); d > 0 {
			line += fmt.Sprintf(" (%s)", d.Round(time.Millisecond))
		}
		if res.RetryCount > 0 {
			line += fmt.Sprintf(" [%d retries]", res.RetryCount)
		}
		if res.ErrorMessage != "" {
			line += ": " + util.TruncateString(res.ErrorMessage, 60)
		}
		fmt.Fprintln(&b, line)
	}

	return b.String()
}
