package stack

import (
	"github.com/robotalks/hactar.go/pkg/fault"
)

// DefaultBase is where an Arena places its memory, the start of SRAM.
const DefaultBase uint32 = 0x20000000

// frameFill is written into pushed frames so they never look painted.
const frameFill uint32 = 0

// Arena is a simulated stack memory for hosts where the real call stack
// cannot be inspected. Code charges stack use explicitly with Call.
type Arena struct {
	bounds Bounds
	words  []uint32
	sp     uint32
}

// NewArena creates an Arena of size bytes, of which the top reserve bytes
// form the reserved stack region. The whole region starts painted.
func NewArena(size, reserve int) *Arena {
	size, reserve = size&^3, reserve&^3
	if reserve > size {
		reserve = size
	}
	a := &Arena{
		bounds: Bounds{
			HeapStart:  DefaultBase,
			StackEnd:   DefaultBase + uint32(size),
			ReserveEnd: DefaultBase + uint32(size),
		},
		words: make([]uint32, size/4),
	}
	a.bounds.ReserveStart = a.bounds.ReserveEnd - uint32(reserve)
	a.sp = a.bounds.StackEnd
	for i := range a.words {
		a.words[i] = Paint
	}
	return a
}

// Bounds returns the linker-style bounds of the arena.
func (a *Arena) Bounds() Bounds {
	return a.bounds
}

// Monitor creates a Monitor over the arena.
func (a *Arena) Monitor() *Monitor {
	return NewMonitor(a, a.bounds)
}

// ReadWord implements Memory.
func (a *Arena) ReadWord(addr uint32) uint32 {
	return a.words[(addr-a.bounds.HeapStart)/4]
}

// WriteWord implements Memory.
func (a *Arena) WriteWord(addr uint32, val uint32) {
	a.words[(addr-a.bounds.HeapStart)/4] = val
}

// SP implements Memory.
func (a *Arena) SP() uint32 {
	return a.sp
}

// Depth returns the current stack depth in bytes.
func (a *Arena) Depth() int {
	return int(a.bounds.StackEnd - a.sp)
}

// Call pushes a frame of frameBytes, runs fn and pops the frame.
func (a *Arena) Call(frameBytes int, fn func()) {
	size := uint32(frameBytes+3) &^ 3
	prev := a.sp
	if size > prev-a.bounds.HeapStart {
		fault.Raise(fault.StackOverflow, "", "frame of %d bytes at depth %d", frameBytes, a.Depth())
	}
	a.sp = prev - size
	for addr := a.sp; addr < prev; addr += 4 {
		a.WriteWord(addr, frameFill)
	}
	defer func() { a.sp = prev }()
	if fn != nil {
		fn()
	}
}
