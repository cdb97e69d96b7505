package kick

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pscheid92/kickcast/internal/domain"
)

// Feed is one message-oriented connection to the relay. Implementations
// must be safe for one concurrent reader plus one concurrent writer, which
// is what gorilla/websocket guarantees.
type Feed interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens feed connections. Sessions depend on this interface so tests
// can substitute an in-memory feed.
type Dialer interface {
	Dial(ctx context.Context) (Feed, error)
}

// WebsocketDialer dials the pusher relay with the fixed protocol tokens the
// service expects.
type WebsocketDialer struct {
	url              string
	handshakeTimeout time.Duration
}

// NewWebsocketDialer creates a dialer for the relay app URL, e.g.
// "wss://ws-us2.pusher.com/app/<key>".
func NewWebsocketDialer(url string, handshakeTimeout time.Duration) *WebsocketDialer {
	return &WebsocketDialer{url: url, handshakeTimeout: handshakeTimeout}
}

func (d *WebsocketDialer) Dial(ctx context.Context) (Feed, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	url := d.url + "?protocol=7&client=js&version=8.4.0-rc2"

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}
	return &feedConn{conn: conn}, nil
}

type feedConn struct {
	conn *websocket.Conn
}

func (f *feedConn) ReadMessage() ([]byte, error) {
	_, msg, err := f.conn.ReadMessage()
	return msg, err
}

func (f *feedConn) WriteJSON(v any) error {
	return f.conn.WriteJSON(v)
}

func (f *feedConn) Close() error {
	return f.conn.Close()
}
