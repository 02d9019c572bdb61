package framework

import (
	"github.com/golang/glog"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/fault"
	"github.com/robotalks/hactar.go/pkg/mpsc"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/timer"
)

// MaxTasks is the capacity of the task registry.
const MaxTasks = 10

// NoTaskInfo describes the registry placeholder.
var NoTaskInfo = TaskInfo{Name: "NoTask"}

// NoTask fills unused registry slots. It must never run.
type NoTask[D any] struct{}

// Run implements Task.
func (NoTask[D]) Run(msg.Msg, *Context[D]) {
	fault.Raise(fault.InvariantViolation, NoTaskInfo.Name, "placeholder task scheduled")
}

// Info implements Task.
func (NoTask[D]) Info() *TaskInfo {
	return &NoTaskInfo
}

// TaskMgr is the cooperative scheduler. Tasks run in registration order,
// each at most once per RunEvery, and are held to their time and memory
// budgets.
type TaskMgr[D any] struct {
	tasks    [MaxTasks]Task[D]
	lastRun  [MaxTasks]timer.MicroSeconds
	hasRun   [MaxTasks]bool
	numTasks int
	ctx      Context[D]
}

// NewTaskMgr creates a TaskMgr.
func NewTaskMgr[D any](sender mpsc.Sender, b *board.Board, data *D, metrics *Metrics) *TaskMgr[D] {
	m := &TaskMgr[D]{
		ctx: Context[D]{
			Sender:  sender,
			Board:   b,
			Data:    data,
			Metrics: metrics,
		},
	}
	for i := range m.tasks {
		m.tasks[i] = NoTask[D]{}
	}
	return m
}

// Context returns the context shared by tasks and handlers.
func (m *TaskMgr[D]) Context() *Context[D] {
	return &m.ctx
}

// AddTask registers a task.
func (m *TaskMgr[D]) AddTask(t Task[D]) {
	if m.numTasks >= MaxTasks {
		fault.Raise(fault.TaskRegistryFull, t.Info().Name, "%d tasks registered", MaxTasks)
	}
	m.tasks[m.numTasks] = t
	m.ctx.Metrics.SetName(m.numTasks, t.Info().Name)
	m.numTasks++
}

// NumTasks returns the number of registered tasks.
func (m *TaskMgr[D]) NumTasks() int {
	return m.numTasks
}

// Task returns the task at index i.
func (m *TaskMgr[D]) Task(i int) Task[D] {
	return m.tasks[i]
}

// Run gives every due task one periodic run. The stack is painted once per
// tick, so a task is charged for the deepest stack reached so far in the
// tick, its own or an earlier task's.
func (m *TaskMgr[D]) Run() {
	b := m.ctx.Board
	mon := b.StackMonitor()
	mon.Repaint()
	base := mon.Used()

	for i := 0; i < m.numTasks; i++ {
		t := m.tasks[i]
		info := t.Info()

		now := b.Now()
		if m.hasRun[i] && now.Sub(m.lastRun[i]) < info.RunEvery {
			continue
		}

		start := b.Now()
		t.Run(msg.Msg{}, &m.ctx)
		end := b.Now()
		endUsage := mon.Used()

		m.lastRun[i], m.hasRun[i] = start, true

		duration := end.Sub(start)
		if duration > info.TimeBudget {
			c := b.Console
			c.PrintString("Exceeded time budget\r\n start=")
			c.PrintUint(start.Uint64())
			c.PrintString(" us\r\n end=")
			c.PrintUint(end.Uint64())
			c.PrintString(" us\r\n duration=")
			c.PrintUint(duration.Uint64())
			c.PrintString(" us\r\n")
			fault.Raise(fault.TimeBudgetExceeded, info.Name, "%v > %v", duration, info.TimeBudget)
		}

		usage := endUsage - base
		if usage > info.MemBudget {
			c := b.Console
			c.PrintString("Exceeded memory budget\r\n  usage==")
			c.PrintUint(uint64(usage))
			c.PrintString("\r\n")
			fault.Raise(fault.MemoryBudgetExceeded, info.Name, "%d > %d", usage, info.MemBudget)
		}

		m.ctx.Metrics.Record(i, usage, duration.Uint64())
		if glog.V(4) {
			glog.Infof("task %s ran %v, %d bytes", info.Name, duration, usage)
		}
	}
}
