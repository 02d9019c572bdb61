package board

import (
	"io"
	"strconv"
	"sync"
)

// RxSize is the number of bytes buffered from the console receiver.
const RxSize = 64

// Console is the debug UART. Output goes to an io.Writer, input arrives
// asynchronously (like the RX interrupt) and is polled with ReadByte.
type Console struct {
	out io.Writer

	lock  sync.Mutex
	rx    [RxSize]byte
	head  int
	count int
}

// NewConsole creates a Console writing to out. A nil out discards output.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out}
}

// Print writes raw bytes.
func (c *Console) Print(data []byte) {
	c.out.Write(data)
}

// PrintString writes a string.
func (c *Console) PrintString(s string) {
	io.WriteString(c.out, s)
}

// PrintUint writes an unsigned number in decimal.
func (c *Console) PrintUint(v uint64) {
	var buf [20]byte
	c.out.Write(strconv.AppendUint(buf[:0], v, 10))
}

// PrintBool writes true or false.
func (c *Console) PrintBool(v bool) {
	if v {
		c.PrintString("true")
	} else {
		c.PrintString("false")
	}
}

// WriteByte writes a single byte, used for echo.
func (c *Console) WriteByte(b byte) error {
	_, err := c.out.Write([]byte{b})
	return err
}

// Empty returns true if nothing has been received.
func (c *Console) Empty() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.count == 0
}

// ReadByte returns the next received byte without blocking.
func (c *Console) ReadByte() (byte, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.count == 0 {
		return 0, false
	}
	b := c.rx[c.head]
	c.head = (c.head + 1) % RxSize
	c.count--
	return b, true
}

// Receive feeds bytes into the receiver. Bytes beyond RxSize are lost, like
// an overrun on the real UART. It returns the number of bytes accepted.
func (c *Console) Receive(data []byte) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	n := 0
	for _, b := range data {
		if c.count == RxSize {
			break
		}
		c.rx[(c.head+c.count)%RxSize] = b
		c.count++
		n++
	}
	return n
}
