package board

import (
	"errors"

	"github.com/robotalks/hactar.go/pkg/netlink"
)

// ErrNoInjection indicates the link doesn't accept injected frames.
var ErrNoInjection = errors.New("link doesn't support injection")

// Injector is implemented by links accepting frames from the host side.
type Injector interface {
	Inject(*netlink.Frame)
}

// Inject simulates external stimuli. All methods are safe to call from any
// goroutine.
type Inject struct {
	board *Board
}

// Inject returns the injection API of the board.
func (b *Board) Inject() Inject {
	return Inject{board: b}
}

// PTTPress presses the PTT button.
func (i Inject) PTTPress() {
	i.board.Buttons.SetPTT(true)
}

// PTTRelease releases the PTT button.
func (i Inject) PTTRelease() {
	i.board.Buttons.SetPTT(false)
}

// AIPress presses the AI button.
func (i Inject) AIPress() {
	i.board.Buttons.SetAI(true)
}

// AIRelease releases the AI button.
func (i Inject) AIRelease() {
	i.board.Buttons.SetAI(false)
}

// Keypress queues a key on the keyboard.
func (i Inject) Keypress(key byte) bool {
	return i.board.Keyboard.Press(key)
}

// ConsoleInput feeds bytes into the console receiver.
func (i Inject) ConsoleInput(data []byte) int {
	return i.board.Console.Receive(data)
}

// DataFromLink delivers a frame as if received from the network.
func (i Inject) DataFromLink(f *netlink.Frame) error {
	injector, ok := i.board.Link.(Injector)
	if !ok {
		return ErrNoInjection
	}
	injector.Inject(f)
	return nil
}

// SetBatteryPercentage sets the battery level, capped at 100.
func (i Inject) SetBatteryPercentage(percentage uint8) {
	if percentage > 100 {
		percentage = 100
	}
	i.board.Battery.percentage.Store(uint32(percentage))
}
