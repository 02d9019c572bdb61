// Package mpsc provides fixed-capacity multiple-producer single-consumer
// message channels.
//
// All queue storage is owned by a Table and allocated once. Sender and
// Receiver are small copyable handles (table + index) and never own messages.
// Sends never block: a full queue is a design-time defect and panics.
// Receives never block: an empty queue yields msg.None.
package mpsc

import (
	"strconv"

	"github.com/robotalks/hactar.go/pkg/fault"
	"github.com/robotalks/hactar.go/pkg/msg"
)

const (
	// QSize is the number of slots of each queue.
	QSize = 10
	// NumQueues is the number of channels a Table provides.
	NumQueues = 2
)

type queue struct {
	slots [QSize]msg.Msg
	head  int
	count int
}

// Table owns the storage of all channels.
type Table struct {
	queues    [NumQueues]queue
	allocated int
}

// NewTable creates a Table with all channels unallocated.
func NewTable() *Table {
	return &Table{}
}

// Channel allocates the next unused channel.
func (t *Table) Channel() (Sender, Receiver) {
	ch := t.allocated
	if ch >= NumQueues {
		fault.Raise(fault.ChannelExhausted, "", "%d channels provisioned", NumQueues)
	}
	t.allocated++
	return Sender{table: t, ch: ch}, Receiver{table: t, ch: ch}
}

// Reset drops all pending messages and frees all channels.
func (t *Table) Reset() {
	for i := range t.queues {
		t.queues[i] = queue{}
	}
	t.allocated = 0
}

// Sender is the producing half of a channel.
type Sender struct {
	table *Table
	ch    int
}

// Send appends m to the tail of the queue.
func (s Sender) Send(m msg.Msg) {
	q := &s.table.queues[s.ch]
	if q.count >= QSize {
		fault.Raise(fault.QueueFull, "", "channel %d dropping %s", s.ch, m.Kind)
	}
	q.slots[(q.head+q.count)%QSize] = m
	q.count++
}

// Index returns the channel index.
func (s Sender) Index() int { return s.ch }

// String implements fmt.Stringer.
func (s Sender) String() string { return "sender#" + strconv.Itoa(s.ch) }

// Receiver is the consuming half of a channel.
type Receiver struct {
	table *Table
	ch    int
}

// Recv removes and returns the message at the head of the queue, or
// msg.None if the queue is empty.
func (r Receiver) Recv() msg.Msg {
	q := &r.table.queues[r.ch]
	if q.count == 0 {
		return msg.Msg{}
	}
	m := q.slots[q.head]
	q.slots[q.head] = msg.Msg{}
	q.head = (q.head + 1) % QSize
	q.count--
	return m
}

// Len returns the number of pending messages.
func (r Receiver) Len() int {
	return r.table.queues[r.ch].count
}

// Index returns the channel index.
func (r Receiver) Index() int { return r.ch }

// String implements fmt.Stringer.
func (r Receiver) String() string { return "receiver#" + strconv.Itoa(r.ch) }
