package tasks

import (
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// KeyboardTaskInfo describes KeyboardTask.
var KeyboardTaskInfo = framework.TaskInfo{
	Name:       "Keyboard",
	RunEvery:   10000,
	TimeBudget: 10000,
	MemBudget:  500,
}

// KeyboardTask collects keys from the keyboard and the console UART.
type KeyboardTask struct {
	// MockWithPTT generates 'A' on PTT press and Enter on release.
	MockWithPTT bool
}

// Run implements Task.
func (t *KeyboardTask) Run(_ msg.Msg, ctx *Context) {
	ctx.Board.Stack.Call(64, func() {
		b := ctx.Board
		if t.MockWithPTT {
			if state, changed := b.Buttons.ReadPTT(); changed {
				if state {
					ctx.Send(msg.NewKeyboard('A'))
				} else {
					ctx.Send(msg.NewKeyboard('\r'))
				}
			}
		}

		if key := b.Keyboard.GetKey(); key != 0 {
			ctx.Send(msg.NewKeyboard(key))
		}

		if c, ok := b.Console.ReadByte(); ok {
			if b.Echo && c != 0 {
				b.Console.WriteByte(c)
			}
			ctx.Send(msg.NewKeyboard(c))
		}
	})
}

// Info implements Task.
func (t *KeyboardTask) Info() *framework.TaskInfo {
	return &KeyboardTaskInfo
}
