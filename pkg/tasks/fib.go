package tasks

import (
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/stack"
)

// DefaultFibN is the Fibonacci number FibTask computes by default.
const DefaultFibN = 20

// FibFrameSize is the stack charged per recursion level.
const FibFrameSize = 32

// FibTaskInfo describes FibTask.
var FibTaskInfo = framework.TaskInfo{
	Name:       "Fib",
	RunEvery:   5000000,
	TimeBudget: 2000000,
	MemBudget:  1000,
}

// FibData keeps the last result.
type FibData struct {
	Last uint64
}

// FibTask is synthetic load exercising the time and memory budgets.
type FibTask struct {
	N int
}

// Run implements Task.
func (t *FibTask) Run(_ msg.Msg, ctx *Context) {
	n := t.N
	if n <= 0 {
		n = DefaultFibN
	}
	ctx.Data.Fib.Last = Fib(ctx.Board.Stack, n)
}

// Info implements Task.
func (t *FibTask) Info() *framework.TaskInfo {
	return &FibTaskInfo
}

// Fib computes the n-th Fibonacci number recursively, charging a frame per
// level on s.
func Fib(s *stack.Arena, n int) (v uint64) {
	s.Call(FibFrameSize, func() {
		if n < 2 {
			v = uint64(n)
			return
		}
		v = Fib(s, n-1) + Fib(s, n-2)
	})
	return
}
