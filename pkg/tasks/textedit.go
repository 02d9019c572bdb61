package tasks

import (
	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// TextEditTaskInfo describes TextEditTask.
var TextEditTaskInfo = framework.TaskInfo{
	Name:       "TextEdit",
	RunEvery:   100000,
	TimeBudget: 10000,
	MemBudget:  300,
}

// TextEditData is the line being typed.
type TextEditData struct {
	Buffer msg.Text
}

// TextEditTask edits the input line. All work happens in TextEditRecv.
type TextEditTask struct{}

// Run implements Task.
func (t *TextEditTask) Run(msg.Msg, *Context) {}

// Info implements Task.
func (t *TextEditTask) Info() *framework.TaskInfo {
	return &TextEditTaskInfo
}

// TextEditRecv handles Keyboard. Enter submits the line as TextInput,
// backspace removes the last character and other keys are appended while
// the line has room.
func TextEditRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.TextEdit
	switch m.Key {
	case 0:
	case board.KeyEnter:
		ctx.Send(msg.NewTextInput(data.Buffer))
		data.Buffer.Clear()
		ctx.Send(msg.NewPrintClearInputMsg())
	case board.KeyBack:
		if _, ok := data.Buffer.Pop(); ok {
			ctx.Send(msg.NewPrintInputMsg(data.Buffer))
		}
	default:
		if data.Buffer.Push(m.Key) {
			ctx.Send(msg.NewPrintInputMsg(data.Buffer))
		}
	}
}
