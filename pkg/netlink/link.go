package netlink

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// Link is the UI side of the network link.
type Link interface {
	// Send queues a frame for the network side.
	Send(*Frame) error
	// Recv returns the next received frame without blocking.
	Recv() (*Frame, bool)
}

// Runnable is implemented by links which need a background receiver.
type Runnable interface {
	Run(context.Context) error
}

// InboxSize is the number of received frames a link buffers.
const InboxSize = 16

// inbox buffers received frames between the transport goroutine and the
// polling task. When full, the oldest frame is dropped.
type inbox struct {
	lock    sync.Mutex
	frames  [InboxSize]*Frame
	head    int
	count   int
	dropped uint64
	closed  atomic.Bool
}

func (b *inbox) markClosed() {
	b.closed.Store(true)
}

func (b *inbox) isClosed() bool {
	return b.closed.Load()
}

func (b *inbox) put(f *Frame) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == InboxSize {
		glog.Warningf("netlink inbox full, dropping object %d", b.frames[b.head].ObjectId)
		b.frames[b.head] = nil
		b.head = (b.head + 1) % InboxSize
		b.count--
		b.dropped++
	}
	b.frames[(b.head+b.count)%InboxSize] = f
	b.count++
}

func (b *inbox) get() (*Frame, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == 0 {
		return nil, false
	}
	f := b.frames[b.head]
	b.frames[b.head] = nil
	b.head = (b.head + 1) % InboxSize
	b.count--
	return f, true
}

// Dropped returns the number of frames dropped because the inbox was full.
func (b *inbox) Dropped() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.dropped
}

// Loopback echoes every sent frame back as received. It stands in for the
// network side in tests and on boards without a network CPU.
type Loopback struct {
	inbox
}

// NewLoopback creates a Loopback.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Send implements Link. The frame goes through the wire encoding.
func (l *Loopback) Send(f *Frame) error {
	if l.isClosed() {
		return ErrClosed
	}
	data, err := f.Encode()
	if err != nil {
		return err
	}
	echo, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	l.put(echo)
	return nil
}

// Recv implements Link.
func (l *Loopback) Recv() (*Frame, bool) {
	return l.get()
}

// Close implements io.Closer.
func (l *Loopback) Close() error {
	l.markClosed()
	return nil
}

// Inject delivers a frame as if received from the network.
func (l *Loopback) Inject(f *Frame) {
	l.put(f)
}

// Open creates a Link from a URL:
//
//	loop://                     Loopback
//	mqtt://host:port/prefix/    MQTT broker, topics under prefix
//	tcp://host:port             length-prefixed frames over TCP
//	ws://host:port/path         WebSocket
//
// origin identifies this device on shared transports.
func Open(linkURL, origin string) (Link, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "", "loop":
		return NewLoopback(), nil
	case "mqtt", "ssl":
		return NewMQTTFromURL(linkURL, origin)
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStream(conn), nil
	case "ws", "wss":
		return DialWebSocket(linkURL, origin)
	}
	return nil, fmt.Errorf("unsupported link scheme %q", u.Scheme)
}
