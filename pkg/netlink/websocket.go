package netlink

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// WebSocket implements Link over a websocket connection, one frame per
// binary message.
type WebSocket struct {
	inbox
	conn     *websocket.Conn
	sendLock sync.Mutex
}

// NewWebSocket wraps websocket.Conn.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// DialWebSocket connects to a websocket server.
func DialWebSocket(linkURL, origin string) (*WebSocket, error) {
	conn, err := websocket.Dial(linkURL, "", "http://"+origin+"/")
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

// Send implements Link.
func (w *WebSocket) Send(f *Frame) error {
	if w.isClosed() {
		return ErrClosed
	}
	data, err := f.Encode()
	if err != nil {
		return err
	}
	w.sendLock.Lock()
	defer w.sendLock.Unlock()
	return websocket.Message.Send(w.conn, data)
}

// Recv implements Link.
func (w *WebSocket) Recv() (*Frame, bool) {
	return w.get()
}

// Run receives frames until the connection fails or ctx is done.
func (w *WebSocket) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		for {
			var pkt []byte
			if err := websocket.Message.Receive(w.conn, &pkt); err != nil {
				errCh <- err
				return
			}
			f, err := DecodeFrame(pkt)
			if err != nil {
				glog.Warningf("netlink websocket: %v", err)
				continue
			}
			w.put(f)
		}
	}()
	select {
	case <-ctx.Done():
		w.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Close implements io.Closer.
func (w *WebSocket) Close() error {
	w.markClosed()
	return w.conn.Close()
}
