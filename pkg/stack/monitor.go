// Package stack measures the high-water mark of the call stack.
//
// Unused stack memory is painted with a sentinel word. The deepest point the
// stack has reached since the last repaint is the lowest address whose word
// no longer carries the paint. Stacks grow downwards from Bounds.StackEnd.
package stack

import (
	"github.com/robotalks/hactar.go/pkg/fault"
)

// Paint is the sentinel word filling unused stack.
const Paint uint32 = 0xc5c5c5c5

// Memory gives word access to the stack region.
type Memory interface {
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, val uint32)
	// SP returns the current stack pointer.
	SP() uint32
}

// Bounds are the addresses supplied by the linker script.
type Bounds struct {
	HeapStart    uint32
	StackEnd     uint32
	ReserveStart uint32
	ReserveEnd   uint32
}

// Reserved returns the size of the reserved stack region.
func (b Bounds) Reserved() int {
	return int(b.ReserveEnd - b.ReserveStart)
}

// Usage is the result of a measurement, in bytes.
type Usage struct {
	// Used is the high-water mark since the last repaint.
	Used int
	// Current is the depth of the stack right now.
	Current int
	// Reserved is the size of the reserved region.
	Reserved int
}

// Monitor measures stack usage of a Memory.
type Monitor struct {
	mem    Memory
	bounds Bounds
}

// NewMonitor creates a Monitor.
func NewMonitor(mem Memory, bounds Bounds) *Monitor {
	return &Monitor{mem: mem, bounds: bounds}
}

// Bounds returns the bounds being monitored.
func (m *Monitor) Bounds() Bounds {
	return m.bounds
}

// Usage measures the stack. With repaint, the dead region between the
// high-water mark and the current stack pointer is painted again so the next
// measurement starts from the current depth. Usage beyond the reserved region
// is fatal.
func (m *Monitor) Usage(repaint bool) Usage {
	end := m.bounds.StackEnd
	boundary := m.boundary()
	sp := m.mem.SP() &^ 3

	if repaint {
		for addr := boundary; addr < sp; addr += 4 {
			m.mem.WriteWord(addr, Paint)
		}
	}

	u := Usage{
		Used:     int(end - boundary),
		Current:  int(end - sp),
		Reserved: m.bounds.Reserved(),
	}
	if u.Used > u.Reserved {
		fault.Raise(fault.StackOverflow, "", "used %d bytes, reserved %d", u.Used, u.Reserved)
	}
	return u
}

// Used is a shortcut for Usage(false).Used.
func (m *Monitor) Used() int {
	return m.Usage(false).Used
}

// Repaint is a shortcut for Usage(true).
func (m *Monitor) Repaint() {
	m.Usage(true)
}

func (m *Monitor) painted(addr uint32) bool {
	return m.mem.ReadWord(addr) == Paint
}

// boundary returns the lowest used address. Two consecutive painted words
// mark unused stack; a single word may legitimately hold the paint value.
func (m *Monitor) boundary() uint32 {
	start, end := m.bounds.HeapStart&^3, m.bounds.StackEnd&^3
	if end-start < 8 {
		return start
	}
	lower, upper := start, end-8
	for upper-lower > 8 {
		mid := (lower + (upper-lower)/2) &^ 3
		if m.painted(mid) && m.painted(mid+4) {
			lower = mid
		} else {
			upper = mid
		}
	}
	addr := lower
	for addr < end && m.painted(addr) {
		addr += 4
	}
	return addr
}
