package framework

import (
	"context"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/mpsc"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/timer"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// TaskInfo describes a task. Values are static and never mutated.
type TaskInfo struct {
	Name string
	// RunEvery is the minimum interval between two periodic runs.
	RunEvery timer.MicroSeconds
	// TimeBudget is the maximum duration of a single run.
	TimeBudget timer.MicroSeconds
	// MemBudget is the maximum stack growth of a single run, in bytes.
	MemBudget int
}

// Task is a cooperative unit of work. D is the type of the scratch arena
// shared by all tasks.
type Task[D any] interface {
	// Run performs the periodic work. m is msg.None in periodic mode.
	// It must not block.
	Run(m msg.Msg, ctx *Context[D])
	// Info returns the static descriptor.
	Info() *TaskInfo
}

// Handler processes a dispatched message.
type Handler[D any] func(m msg.Msg, ctx *Context[D])

// Context is what a task sees when it runs.
type Context[D any] struct {
	Sender  mpsc.Sender
	Board   *board.Board
	Data    *D
	Metrics *Metrics
}

// Send is a shortcut of Sender.Send.
func (c *Context[D]) Send(m msg.Msg) {
	c.Sender.Send(m)
}
