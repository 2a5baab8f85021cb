package live

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultReadLimit    = 64 << 10
)

// Transport carries frames and messages for one tab.
type Transport interface {
	WriteFrame(Frame) error
	ReadMessage() (Message, error)
	Close() error
}

// ErrClosed is returned by ReadMessage once the peer has gone away normally.
var ErrClosed = errors.New("live: connection closed")

// WebSocketTransport adapts a gorilla websocket connection. Writes are
// serialized and bounded by a deadline; a failed write closes the connection.
type WebSocketTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
}

// NewWebSocketTransport wraps conn. Zero values select a 10s write timeout and a 64KiB read limit.
func NewWebSocketTransport(conn *websocket.Conn, writeTimeout time.Duration, readLimit int64) *WebSocketTransport {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if readLimit <= 0 {
		readLimit = defaultReadLimit
	}
	conn.SetReadLimit(readLimit)
	return &WebSocketTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *WebSocketTransport) WriteFrame(f Frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		_ = t.conn.Close()
		return err
	}
	defer func() { _ = t.conn.SetWriteDeadline(time.Time{}) }()
	err := t.conn.WriteJSON(f)
	if err != nil {
		_ = t.conn.Close()
	}
	return err
}

func (t *WebSocketTransport) ReadMessage() (Message, error) {
	var msg Message
	if err := t.conn.ReadJSON(&msg); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Message{}, ErrClosed
		}
		return Message{}, err
	}
	return msg, nil
}

// Close sends a normal close frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()
	return t.conn.Close()
}
