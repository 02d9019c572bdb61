// Package board is the board support package of the host simulation. It
// provides the peripherals the firmware tasks talk to: console UART, buttons,
// keyboard, display, status LED, battery, clock, call stack and net link.
package board

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/robotalks/hactar.go/pkg/netlink"
	"github.com/robotalks/hactar.go/pkg/stack"
	"github.com/robotalks/hactar.go/pkg/timer"
)

// Default stack geometry.
const (
	DefaultStackSize    = 16 * 1024
	DefaultStackReserve = 8 * 1024
)

// Config defines the board setup.
type Config struct {
	// Out receives console output.
	Out io.Writer
	// Echo writes characters received on the console back to it.
	Echo bool
	// Clock defaults to a hardware style timer.Counter.
	Clock timer.Clock
	// Link defaults to a netlink.Loopback.
	Link         netlink.Link
	StackSize    int
	StackReserve int
}

// Board bundles the peripherals.
type Board struct {
	Console  *Console
	Buttons  *Buttons
	Keyboard *Keyboard
	Display  *Display
	LED      *LED
	Battery  *Battery
	Clock    timer.Clock
	Stack    *stack.Arena
	Link     netlink.Link
	Echo     bool

	monitor *stack.Monitor
}

// New creates a Board.
func New(conf Config) *Board {
	if conf.Clock == nil {
		conf.Clock = timer.NewCounter()
	}
	if conf.Link == nil {
		conf.Link = netlink.NewLoopback()
	}
	if conf.StackSize <= 0 {
		conf.StackSize = DefaultStackSize
	}
	if conf.StackReserve <= 0 {
		conf.StackReserve = DefaultStackReserve
	}
	b := &Board{
		Console:  NewConsole(conf.Out),
		Buttons:  NewButtons(),
		Keyboard: NewKeyboard(),
		Display:  NewDisplay(),
		LED:      NewLED(),
		Battery:  NewBattery(),
		Clock:    conf.Clock,
		Stack:    stack.NewArena(conf.StackSize, conf.StackReserve),
		Link:     conf.Link,
		Echo:     conf.Echo,
	}
	b.monitor = b.Stack.Monitor()
	return b
}

// Init brings the board up with the LED blue.
func (b *Board) Init() {
	b.LED.Set(Blue)
	b.Console.PrintString("Starting\r\n")
}

// Validate checks the board configuration.
func (b *Board) Validate() error {
	bounds := b.monitor.Bounds()
	if bounds.ReserveStart < bounds.HeapStart || bounds.ReserveEnd > bounds.StackEnd {
		return fmt.Errorf("stack reserve [%#x, %#x) outside stack [%#x, %#x)",
			bounds.ReserveStart, bounds.ReserveEnd, bounds.HeapStart, bounds.StackEnd)
	}
	if w, h := b.Display.Size(); w <= 0 || h <= 0 {
		return fmt.Errorf("invalid display size %dx%d", w, h)
	}
	return nil
}

// StackMonitor returns the monitor of the board stack.
func (b *Board) StackMonitor() *stack.Monitor {
	return b.monitor
}

// Now returns the current time.
func (b *Board) Now() timer.MicroSeconds {
	return b.Clock.Now()
}

// ReportStack prints the stack usage to the console.
func (b *Board) ReportStack(prefix string) stack.Usage {
	u := b.monitor.Usage(false)
	c := b.Console
	c.PrintString("  " + prefix + " stack usage: ")
	c.PrintUint(uint64(u.Used))
	c.PrintString(" bytes\r\n  " + prefix + " stack current: ")
	c.PrintUint(uint64(u.Current))
	c.PrintString(" bytes\r\n  " + prefix + " stack reserved: ")
	c.PrintUint(uint64(u.Reserved))
	c.PrintString(" bytes\r\n")
	return u
}

// Battery reports the charge level.
type Battery struct {
	percentage atomic.Uint32
}

// NewBattery creates a Battery.
func NewBattery() *Battery {
	b := &Battery{}
	b.percentage.Store(99)
	return b
}

// Percentage returns the charge level between 0 and 100.
func (b *Battery) Percentage() uint8 {
	return uint8(b.percentage.Load())
}
