package tasks

import (
	"github.com/golang/glog"

	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// ButtonTaskInfo describes ButtonTask.
var ButtonTaskInfo = framework.TaskInfo{
	Name:       "Button",
	RunEvery:   10000,
	TimeBudget: 10000,
	MemBudget:  500,
}

// ButtonData is the state of the PTT button seen by handlers.
type ButtonData struct {
	PTT     bool
	Changes uint32
}

// ButtonTask reports PTT button changes.
type ButtonTask struct{}

// Run implements Task.
func (t *ButtonTask) Run(_ msg.Msg, ctx *Context) {
	ctx.Board.Stack.Call(48, func() {
		if state, changed := ctx.Board.Buttons.ReadPTT(); changed {
			ctx.Send(msg.NewPttButton(state))
		}
	})
}

// Info implements Task.
func (t *ButtonTask) Info() *framework.TaskInfo {
	return &ButtonTaskInfo
}

// ButtonRecv handles PttButton.
func ButtonRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.Button
	data.PTT = m.Pressed
	data.Changes++
	glog.V(1).Infof("PTT pressed=%v", m.Pressed)
}
