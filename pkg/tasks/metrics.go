package tasks

import (
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// MetricsTaskInfo describes MetricsTask.
var MetricsTaskInfo = framework.TaskInfo{
	Name:       "Metrics",
	RunEvery:   5000000,
	TimeBudget: 2000000,
	MemBudget:  100,
}

// MetricsSink receives task metrics before they are reset.
type MetricsSink interface {
	ObserveTask(index int, m framework.TaskMetrics)
	ObserveDispatch(kind msg.Kind, dispatched, dropped uint64)
}

// MetricsTask prints and resets the per-task metrics.
type MetricsTask struct {
	Sink MetricsSink
}

// Run implements Task.
func (t *MetricsTask) Run(_ msg.Msg, ctx *Context) {
	ctx.Board.Stack.Call(48, func() {
		c := ctx.Board.Console
		c.PrintString("\r\n\r\n")
		for i := 0; i < framework.MaxTasks; i++ {
			m := ctx.Metrics.Task(i)
			if m.RunCount == 0 {
				continue
			}
			c.PrintString("Task ")
			c.PrintUint(uint64(i))
			c.PrintString(" " + m.Name + ": ")
			c.PrintUint(uint64(m.RunCount))
			c.PrintString(" runs, ")
			c.PrintUint(uint64(m.MaxStack))
			c.PrintString(" bytes, ")
			c.PrintUint(uint64(m.MaxDurationUs))
			c.PrintString(" uS\r\n")
			if t.Sink != nil {
				t.Sink.ObserveTask(i, m)
			}
			ctx.Metrics.Reset(i)
		}
		c.PrintString("Battery ")
		c.PrintUint(uint64(ctx.Board.Battery.Percentage()))
		c.PrintString("%\r\n")
		if t.Sink != nil {
			for k := msg.Kind(1); int(k) < msg.NumKinds; k++ {
				t.Sink.ObserveDispatch(k, ctx.Metrics.Dispatched(k), ctx.Metrics.Dropped(k))
			}
		}
	})
}

// Info implements Task.
func (t *MetricsTask) Info() *framework.TaskInfo {
	return &MetricsTaskInfo
}
