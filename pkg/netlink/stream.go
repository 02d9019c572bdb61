package netlink

import (
	"context"
	"encoding/binary"
	"io"
	"sync"

	"github.com/golang/glog"
)

// Stream implements Link over a byte stream (UART to the network CPU, TCP).
// Each frame is prefixed by 4-byte (little-endian) length.
type Stream struct {
	inbox
	rw       io.ReadWriter
	sendLock sync.Mutex
}

// NewStream creates a Stream with io.ReadWriter.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw}
}

// Send implements Link.
func (s *Stream) Send(f *Frame) error {
	if s.isClosed() {
		return ErrClosed
	}
	data, err := f.Encode()
	if err != nil {
		return err
	}
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	return writePacket(s.rw, data)
}

// Recv implements Link.
func (s *Stream) Recv() (*Frame, bool) {
	return s.get()
}

// Run reads frames until the stream fails or ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.readLoop()
	}()
	select {
	case <-ctx.Done():
		s.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Stream) readLoop() error {
	for {
		pkt, err := readPacket(s.rw)
		if err != nil {
			return err
		}
		f, err := DecodeFrame(pkt)
		if err != nil {
			// a corrupted frame is skipped, the length prefix keeps us in sync.
			glog.Warningf("netlink stream: %v", err)
			continue
		}
		s.put(f)
	}
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	s.markClosed()
	if closer, ok := s.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func readPacket(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(r, pkt)
	return pkt, err
}

func writePacket(w io.Writer, pkt []byte) error {
	size := uint32(len(pkt))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}
	_, err := w.Write(pkt)
	return err
}
