// Package fault defines the fatal fault taxonomy of the firmware.
//
// None of these faults is recovered: the component detecting one prints a
// short diagnostic to the console and panics with a *Fault. The platform
// panic handler (Halt) is the only place a fault is ever recovered.
package fault

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Kind classifies a fault.
type Kind int

// Fault kinds.
const (
	ChannelExhausted Kind = iota + 1
	QueueFull
	TaskRegistryFull
	TimeBudgetExceeded
	MemoryBudgetExceeded
	StackOverflow
	InvariantViolation
)

var kindNames = map[Kind]string{
	ChannelExhausted:     "channel exhausted",
	QueueFull:            "queue full",
	TaskRegistryFull:     "task registry full",
	TimeBudgetExceeded:   "time budget exceeded",
	MemoryBudgetExceeded: "memory budget exceeded",
	StackOverflow:        "stack overflow",
	InvariantViolation:   "invariant violation",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault is the panic value of a fatal fault.
type Fault struct {
	Kind Kind
	// Task is the name of the offending task, if any.
	Task   string
	Detail string
}

// Error implements error.
func (f *Fault) Error() string {
	msg := f.Kind.String()
	if f.Task != "" {
		msg = "task " + f.Task + ": " + msg
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}

// New creates a Fault.
func New(kind Kind, task, detail string) *Fault {
	return &Fault{Kind: kind, Task: task, Detail: detail}
}

// Raise logs and panics with a Fault.
func Raise(kind Kind, task string, format string, args ...interface{}) {
	f := New(kind, task, fmt.Sprintf(format, args...))
	glog.Errorf("fatal: %v", f)
	panic(f)
}

// Is reports whether err is a Fault of the given kind.
func Is(err error, kind Kind) bool {
	f, ok := err.(*Fault)
	return ok && f.Kind == kind
}

// Indicator is what the panic handler shows the fault on.
type Indicator interface {
	Fatal()
}

// Halt is the platform panic handler. Deferred in main, it recovers a Fault,
// signals it on the indicator and exits. Other panics pass through.
func Halt(ind Indicator) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(*Fault)
	if !ok {
		panic(r)
	}
	if ind != nil {
		ind.Fatal()
	}
	glog.Errorf("halted: %v", f)
	glog.Flush()
	exit(2)
}

var exit = os.Exit
