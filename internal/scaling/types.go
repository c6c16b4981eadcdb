package scaling

// Action represents a scaling decision action.
type Action string

const (
	// ActionGrow indicates one worker should be added.
	ActionGrow Action = "grow"

	// ActionNone indicates no scaling change is needed.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Snapshot carries the inputs a policy evaluation needs: the latest
// resource picture plus queue and worker occupancy.
type Snapshot struct {
	// CPUPercent is the most recent system CPU utilization, 0-100.
	CPUPercent float64

	// MemoryPercent is the most recent memory utilization, 0-100.
	MemoryPercent float64

	// QueueDepth is the number of tasks waiting to be picked up.
	QueueDepth int

	// Workers is the number of workers currently draining the queue.
	Workers int
}

// Decision is the result of evaluating the scaling policy against a
// snapshot of the run.
type Decision struct {
	// Action is the recommended scaling action.
	Action Action

	// Delta is the number of workers to add. Zero when Action is ActionNone.
	Delta int

	// Reason is a human-readable explanation of the decision.
	Reason string
}
