package framework

import (
	"github.com/robotalks/hactar.go/pkg/msg"
)

// TaskMetrics are the counters of a single task.
type TaskMetrics struct {
	Name          string
	RunCount      uint32
	MaxStack      uint32
	MaxDurationUs uint32
}

// Metrics keeps per-task counters since the last reset, plus dispatch
// counters per message kind. All storage is fixed size.
type Metrics struct {
	tasks      [MaxTasks]TaskMetrics
	dispatched [msg.NumKinds]uint64
	dropped    [msg.NumKinds]uint64
}

// NewMetrics creates Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Task returns the counters of task i.
func (m *Metrics) Task(i int) TaskMetrics {
	return m.tasks[i]
}

// SetName records the name of task i.
func (m *Metrics) SetName(i int, name string) {
	m.tasks[i].Name = name
}

// Record accounts a run of task i.
func (m *Metrics) Record(i int, stackBytes int, durationUs uint64) {
	t := &m.tasks[i]
	t.RunCount++
	if uint32(stackBytes) > t.MaxStack {
		t.MaxStack = uint32(stackBytes)
	}
	if uint32(durationUs) > t.MaxDurationUs {
		t.MaxDurationUs = uint32(durationUs)
	}
}

// Reset clears the counters of task i, keeping its name.
func (m *Metrics) Reset(i int) {
	m.tasks[i] = TaskMetrics{Name: m.tasks[i].Name}
}

// Dispatched returns the number of routed messages of a kind.
func (m *Metrics) Dispatched(k msg.Kind) uint64 {
	return m.dispatched[k]
}

// Dropped returns the number of dropped messages of a kind.
func (m *Metrics) Dropped(k msg.Kind) uint64 {
	return m.dropped[k]
}
