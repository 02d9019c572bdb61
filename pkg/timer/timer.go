// Package timer provides the monotonic microsecond time base used by the scheduler.
package timer

import (
	"strconv"
	"sync"
	"time"
)

// WrapAround is the modulus of the hardware counter: 1 hour at 1MHz.
const WrapAround uint64 = 3600 * 1000000

// MicroSeconds is a timestamp or a duration in microseconds.
type MicroSeconds uint64

// Sub returns t - o, taking a single counter wrap-around into account.
func (t MicroSeconds) Sub(o MicroSeconds) MicroSeconds {
	if o > t {
		return MicroSeconds(WrapAround - uint64(o) + uint64(t))
	}
	return t - o
}

// Uint64 returns the raw value.
func (t MicroSeconds) Uint64() uint64 {
	return uint64(t)
}

// Duration converts to time.Duration.
func (t MicroSeconds) Duration() time.Duration {
	return time.Duration(t) * time.Microsecond
}

// String implements fmt.Stringer.
func (t MicroSeconds) String() string {
	return strconv.FormatUint(uint64(t), 10) + "us"
}

// Clock is the current-time source.
type Clock interface {
	Now() MicroSeconds
}

// ClockFunc is the func form of Clock.
type ClockFunc func() MicroSeconds

// Now implements Clock.
func (f ClockFunc) Now() MicroSeconds {
	return f()
}

// Counter emulates a free running 32-bit hardware counter extended by an
// overflow interrupt. The interrupt handler and readers share the high half,
// so reads happen with "interrupts masked" (the lock held).
type Counter struct {
	// Source reads the low 32 bits of the hardware counter.
	Source func() uint32

	lock      sync.Mutex
	overflows uint64
	lastLow   uint32
}

// NewCounter creates a Counter reading the host monotonic clock.
func NewCounter() *Counter {
	start := time.Now()
	return &Counter{
		Source: func() uint32 {
			return uint32(time.Since(start) / time.Microsecond)
		},
	}
}

// HandleOverflowIRQ is called when the low counter wraps.
func (c *Counter) HandleOverflowIRQ() {
	c.lock.Lock()
	c.sample()
	c.lock.Unlock()
}

// Now implements Clock.
func (c *Counter) Now() MicroSeconds {
	c.lock.Lock()
	ticks := c.sample()
	c.lock.Unlock()
	return MicroSeconds(ticks % WrapAround)
}

// sample must be called with the lock held. A wrap is counted once no matter
// whether the interrupt or a reader observes it first.
func (c *Counter) sample() uint64 {
	low := c.Source()
	if low < c.lastLow {
		c.overflows++
	}
	c.lastLow = low
	return c.overflows<<32 | uint64(low)
}

// Manual is a Clock controlled by the caller.
type Manual struct {
	now MicroSeconds
}

// NewManual creates a Manual clock at t.
func NewManual(t MicroSeconds) *Manual {
	return &Manual{now: t}
}

// Now implements Clock.
func (m *Manual) Now() MicroSeconds {
	return m.now
}

// Set moves the clock to t (modulo WrapAround).
func (m *Manual) Set(t MicroSeconds) {
	m.now = MicroSeconds(uint64(t) % WrapAround)
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d MicroSeconds) {
	m.Set(m.now + d)
}
