package engine

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/gearshift/internal/task"
	"github.com/Iron-Ham/gearshift/internal/taskqueue"
)

// Plan previews what a Run would do without executing anything: the mode
// that would be chosen right now and the dependency admission levels,
// assuming every task succeeds.
type Plan struct {
	// Mode is the strategy Run would select for this batch.
	Mode task.Mode `json:"mode"`

	// Reason explains the mode choice.
	Reason string `json:"reason"`

	// TaskCount is the number of tasks in the batch.
	TaskCount int `json:"task_count"`

	// Batches holds the dependency admission levels, task ids in
	// admission order.
	Batches [][]string `json:"batches,omitempty"`

	// Remainder lists tasks whose dependencies can never be satisfied
	// (cycles or unknown ids).
	Remainder []string `json:"remainder,omitempty"`

	// Strict reports whether the remainder would fail instead of being
	// force-admitted.
	Strict bool `json:"strict,omitempty"`
}

// Plan computes the dry-run preview for a batch. Mode selection consults
// the live resource monitor, so the same batch can plan differently on a
// busy host.
func (e *Executor) Plan(tasks []task.Task) *Plan {
	mode, reason := e.selectMode(len(tasks))
	p := &Plan{
		Mode:      mode,
		Reason:    reason,
		TaskCount: len(tasks),
		Strict:    e.cfg.StrictDependencies,
	}

	batches, remainder := taskqueue.Batches(tasks)
	for _, batch := range batches {
		p.Batches = append(p.Batches, taskIDs(batch))
	}
	if len(remainder) > 0 {
		p.Remainder = taskIDs(remainder)
	}
	return p
}

// String renders the plain-text preview printed by the CLI.
func (p *Plan) String() string {
	var b strings.Builder

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "RUN PLAN")
	fmt.Fprintln(&b, strings.Repeat("─", 50))
	fmt.Fprintf(&b, "Mode:  %s (%s)\n", p.Mode, p.Reason)
	fmt.Fprintf(&b, "Tasks: %d\n", p.TaskCount)

	if len(p.Batches) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "BATCHES")
		fmt.Fprintln(&b, strings.Repeat("─", 50))
		for i, batch := range p.Batches {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(batch, ", "))
		}
	}

	if len(p.Remainder) > 0 {
		fmt.Fprintln(&b)
		if p.Strict {
			fmt.Fprintf(&b, "Unresolvable (will fail): %s\n", strings.Join(p.Remainder, ", "))
		} else {
			fmt.Fprintf(&b, "Unresolvable (will be forced): %s\n", strings.Join(p.Remainder, ", "))
		}
	}

	return b.String()
}
