package tasks

import (
	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/mpsc"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// System is the assembled firmware: one channel, the scheduler with all
// tasks and the dispatcher draining the channel.
type System struct {
	Board      *board.Board
	Data       *Data
	Table      *mpsc.Table
	Sender     mpsc.Sender
	Receiver   mpsc.Receiver
	Metrics    *framework.Metrics
	Tasks      *framework.TaskMgr[Data]
	Dispatcher *framework.Dispatcher[Data]
	Loop       *framework.Loop[Data]
}

// NewSystem wires the tasks to b. routes may be nil for Routes().
func NewSystem(b *board.Board, data *Data, routes *framework.Routes[Data], opts Options) *System {
	if data == nil {
		data = NewData()
	}
	if routes == nil {
		routes = Routes()
	}
	s := &System{
		Board:   b,
		Data:    data,
		Table:   mpsc.NewTable(),
		Metrics: framework.NewMetrics(),
	}
	s.Sender, s.Receiver = s.Table.Channel()
	s.Tasks = framework.NewTaskMgr(s.Sender, b, data, s.Metrics)
	Register(s.Tasks, opts)
	s.Dispatcher = framework.NewDispatcher(s.Receiver, routes, s.Tasks.Context())
	s.Loop = framework.NewLoop(s.Tasks, s.Dispatcher)
	return s
}

// Step runs the scheduler and the dispatcher once.
func (s *System) Step() {
	s.Loop.RunIteration()
}

// Send enqueues a message as if produced by a task.
func (s *System) Send(m msg.Msg) {
	s.Sender.Send(m)
}
