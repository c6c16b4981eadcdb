// Package monitor samples system resource utilization on a fixed interval
// and keeps a bounded rolling history. The executor reads the latest sample
// for mode selection, the adaptive controller reads it for scaling
// decisions, and tuning suggestions read windowed averages.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Iron-Ham/gearshift/internal/logging"
)

// Sample is one point-in-time resource reading.
type Sample struct {
	// Timestamp is when the sample was taken.
	Timestamp time.Time

	// CPUPercent is system-wide CPU utilization, 0-100.
	CPUPercent float64

	// MemoryPercent is system memory utilization, 0-100.
	MemoryPercent float64

	// ActiveTaskCount is the engine's in-flight invocation count at
	// sampling time.
	ActiveTaskCount int
}

// Probe obtains CPU and memory utilization percentages. Probes that fail
// return whatever fields they could read; the failed fields stay zero.
type Probe func(ctx context.Context) (cpuPercent, memoryPercent float64, err error)

// CounterFunc reports the engine's current in-flight invocation count.
type CounterFunc func() int

// Monitor periodically samples resource utilization until stopped.
type Monitor struct {
	interval    time.Duration
	historySize int
	activeTasks CounterFunc
	logger      *logging.Logger

	mu      sync.Mutex
	probe   Probe
	samples []Sample
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Monitor sampling every interval with a rolling history of
// historySize samples. activeTasks may be nil when no in-flight gauge is
// available.
func New(interval time.Duration, historySize int, activeTasks CounterFunc, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if historySize < 1 {
		historySize = 1
	}
	return &Monitor{
		interval:    interval,
		historySize: historySize,
		activeTasks: activeTasks,
		probe:       systemProbe,
		logger:      logger.WithComponent("monitor"),
	}
}

// systemProbe reads utilization from the OS via gopsutil. The CPU reading
// compares against the previous call, so the first sample reports zero.
func systemProbe(ctx context.Context) (float64, float64, error) {
	var cpuPercent float64
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, err
	}
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return cpuPercent, 0, err
	}
	return cpuPercent, vm.UsedPercent, nil
}

// SetProbe replaces the OS probe, for deterministic tests and embedded
// callers with their own metrics source. Safe to call before or between
// sampling ticks.
func (m *Monitor) SetProbe(p Probe) {
	if p == nil {
		return
	}
	m.mu.Lock()
	m.probe = p
	m.mu.Unlock()
}

// Start begins the sampling loop. An initial sample is taken immediately
// so Latest() has data before the first tick. Calling Start on a running
// monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(ctx)
}

// loop samples until the monitor is stopped.
func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	m.sample(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample takes one reading and appends it to the history. Probe errors are
// logged and yield zero-valued fields; they never abort the loop.
func (m *Monitor) sample(ctx context.Context) {
	m.mu.Lock()
	probe := m.probe
	m.mu.Unlock()

	cpuPercent, memoryPercent, err := probe(ctx)
	if err != nil && ctx.Err() == nil {
		m.logger.Warn("resource probe failed", "error", err)
	}

	s := Sample{
		Timestamp:     time.Now(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memoryPercent,
	}
	if m.activeTasks != nil {
		s.ActiveTaskCount = m.activeTasks()
	}

	m.record(s)
}

// record appends a sample, evicting the oldest entries past the history cap.
func (m *Monitor) record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, s)
	if len(m.samples) > m.historySize {
		m.samples = m.samples[len(m.samples)-m.historySize:]
	}
}

// Stop halts the sampling loop and waits for it to exit. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
}

// Latest returns the most recent sample, or nil when no sample has been
// taken yet.
func (m *Monitor) Latest() *Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.samples) == 0 {
		return nil
	}
	s := m.samples[len(m.samples)-1]
	return &s
}

// Average returns the arithmetic mean over the most recent windowSize
// samples, or nil when the history is empty. A windowSize that is not
// positive or exceeds the history covers the whole history.
func (m *Monitor) Average(windowSize int) *Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.samples) == 0 {
		return nil
	}
	if windowSize <= 0 || windowSize > len(m.samples) {
		windowSize = len(m.samples)
	}

	window := m.samples[len(m.samples)-windowSize:]
	avg := Sample{Timestamp: window[len(window)-1].Timestamp}

	var activeSum int
	for _, s := range window {
		avg.CPUPercent += s.CPUPercent
		avg.MemoryPercent += s.MemoryPercent
		activeSum += s.ActiveTaskCount
	}
	n := float64(len(window))
	avg.CPUPercent /= n
	avg.MemoryPercent /= n
	avg.ActiveTaskCount = activeSum / len(window)

	return &avg
}

// HistoryLen returns the number of samples currently retained.
func (m *Monitor) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}
