package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/gearshift/internal/config"
	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/task"
)

// Manifest is the YAML document the CLI feeds to the engine: the tasks to
// run plus optional overrides for the run configuration.
type Manifest struct {
	// Version is the manifest format version (currently "1", optional).
	Version string `yaml:"version,omitempty"`

	// Run holds optional run-config overrides applied on top of the
	// resolved configuration.
	Run *RunOverrides `yaml:"run,omitempty"`

	// Tasks is the work to execute.
	Tasks []taskEntry `yaml:"tasks"`
}

// taskEntry mirrors one task as written in the manifest. EstimatedCost is
// a Go duration string ("500ms"); the engine type stores it parsed.
type taskEntry struct {
	ID            string   `yaml:"id,omitempty"`
	Role          string   `yaml:"role,omitempty"`
	Description   string   `yaml:"description,omitempty"`
	Priority      int      `yaml:"priority,omitempty"`
	EstimatedCost string   `yaml:"estimated_cost,omitempty"`
	DependsOn     []string `yaml:"depends_on,omitempty"`
}

// RunOverrides holds the run-config fields a manifest may set. Pointer
// fields distinguish "absent" from an explicit zero.
type RunOverrides struct {
	MaxConcurrentTasks       *int  `yaml:"max_concurrent_tasks,omitempty"`
	TaskTimeoutSeconds       *int  `yaml:"task_timeout_seconds,omitempty"`
	BatchSize                *int  `yaml:"batch_size,omitempty"`
	RetryCount               *int  `yaml:"retry_count,omitempty"`
	CircuitBreakerThreshold  *int  `yaml:"circuit_breaker_threshold,omitempty"`
	ConnectionPoolSize       *int  `yaml:"connection_pool_size,omitempty"`
	RecoveryTimeoutSeconds   *int  `yaml:"recovery_timeout_seconds,omitempty"`
	AcquireTimeoutSeconds    *int  `yaml:"acquire_timeout_seconds,omitempty"`
	SampleIntervalMs         *int  `yaml:"sample_interval_ms,omitempty"`
	HistorySize              *int  `yaml:"history_size,omitempty"`
	WorkerIdleTimeoutSeconds *int  `yaml:"worker_idle_timeout_seconds,omitempty"`
	BatchPauseMs             *int  `yaml:"batch_pause_ms,omitempty"`
	StrictDependencies       *bool `yaml:"strict_dependencies,omitempty"`
}

// Apply overlays the set override fields onto base and returns the
// result. A nil receiver returns base unchanged.
func (o *RunOverrides) Apply(base config.RunConfig) config.RunConfig {
	if o == nil {
		return base
	}
	if o.MaxConcurrentTasks != nil {
		base.MaxConcurrentTasks = *o.MaxConcurrentTasks
	}
	if o.TaskTimeoutSeconds != nil {
		base.TaskTimeoutSeconds = *o.TaskTimeoutSeconds
	}
	if o.BatchSize != nil {
		base.BatchSize = *o.BatchSize
	}
	if o.RetryCount != nil {
		base.RetryCount = *o.RetryCount
	}
	if o.CircuitBreakerThreshold != nil {
		base.CircuitBreakerThreshold = *o.CircuitBreakerThreshold
	}
	if o.ConnectionPoolSize != nil {
		base.ConnectionPoolSize = *o.ConnectionPoolSize
	}
	if o.RecoveryTimeoutSeconds != nil {
		base.RecoveryTimeoutSeconds = *o.RecoveryTimeoutSeconds
	}
	if o.AcquireTimeoutSeconds != nil {
		base.AcquireTimeoutSeconds = *o.AcquireTimeoutSeconds
	}
	if o.SampleIntervalMs != nil {
		base.SampleIntervalMs = *o.SampleIntervalMs
	}
	if o.HistorySize != nil {
		base.HistorySize = *o.HistorySize
	}
	if o.WorkerIdleTimeoutSeconds != nil {
		base.WorkerIdleTimeoutSeconds = *o.WorkerIdleTimeoutSeconds
	}
	if o.BatchPauseMs != nil {
		base.BatchPauseMs = *o.BatchPauseMs
	}
	if o.StrictDependencies != nil {
		base.StrictDependencies = *o.StrictDependencies
	}
	return base
}

// Load reads, parses, and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// Parse decodes manifest bytes and validates them. Tasks without an ID
// are assigned a generated uuid.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate checks the decoded manifest and fills in generated IDs.
func (m *Manifest) validate() error {
	if m.Version != "" && m.Version != "1" {
		return fmt.Errorf("unsupported manifest version: %s (supported: 1)", m.Version)
	}
	if len(m.Tasks) == 0 {
		return errors.New("manifest contains no tasks")
	}

	seen := make(map[string]bool, len(m.Tasks))
	for i := range m.Tasks {
		e := &m.Tasks[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate task id %q", e.ID)
		}
		seen[e.ID] = true

		if e.EstimatedCost != "" {
			if _, err := time.ParseDuration(e.EstimatedCost); err != nil {
				return fmt.Errorf("task %q: invalid estimated_cost %q: %v", e.ID, e.EstimatedCost, err)
			}
		}
	}
	return nil
}

// EngineTasks converts the manifest entries into engine task values.
// Parse has already validated the entries, so conversion cannot fail.
func (m *Manifest) EngineTasks() []task.Task {
	tasks := make([]task.Task, len(m.Tasks))
	for i, e := range m.Tasks {
		cost, _ := time.ParseDuration(e.EstimatedCost)
		tasks[i] = task.Task{
			ID:            e.ID,
			Role:          e.Role,
			Description:   e.Description,
			Priority:      e.Priority,
			EstimatedCost: cost,
			Dependencies:  e.DependsOn,
		}
	}
	return tasks
}
