package tasks

import (
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// Defaults of the chat track.
const (
	DefaultTrackAlias uint64 = 123
	DefaultGroupID    uint32 = 45
	DefaultObjectID   uint32 = 67
)

// ChatTaskInfo describes ChatTask.
var ChatTaskInfo = framework.TaskInfo{
	Name:       "Chat",
	RunEvery:   100000,
	TimeBudget: 10000,
	MemBudget:  500,
}

// ChatData holds the next object to publish.
type ChatData struct {
	Object   msg.Object
	Received uint32
}

// ChatTask turns typed lines into chat objects and shows received ones.
type ChatTask struct{}

// Run implements Task.
func (t *ChatTask) Run(msg.Msg, *Context) {}

// Info implements Task.
func (t *ChatTask) Info() *framework.TaskInfo {
	return &ChatTaskInfo
}

// ChatRecv handles TextInput and TxtMsgIn.
func ChatRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.Chat
	switch m.Kind {
	case msg.TextInput:
		ctx.Send(msg.NewTxtMsgOut(data.Object, m.Text))
		data.Object.ObjectID++
		ctx.Send(msg.NewPrintMsg(m.Text))
	case msg.TxtMsgIn:
		data.Received++
		ctx.Send(msg.NewPrintMsg(m.Text))
	}
}
