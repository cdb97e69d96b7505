package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/events"
	"github.com/pscheid92/kickcast/internal/kick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeed delivers scripted frames and records writes.
type fakeFeed struct {
	frames chan []byte

	mu     sync.Mutex
	writes []any
	closed bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{frames: make(chan []byte, 16)}
}

func (f *fakeFeed) ReadMessage() ([]byte, error) {
	frame, ok := <-f.frames
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return frame, nil
}

func (f *fakeFeed) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("feed closed")
	}
	f.writes = append(f.writes, v)
	return nil
}

func (f *fakeFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	return nil
}

func (f *fakeFeed) written() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.writes...)
}

func (f *fakeFeed) push(t *testing.T, event string, payload any) {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(map[string]string{"event": event, "data": string(inner)})
	require.NoError(t, err)
	f.frames <- frame
}

type fakeDialer struct {
	mu    sync.Mutex
	feeds []*fakeFeed
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context) (kick.Feed, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	feed := newFakeFeed()
	d.feeds = append(d.feeds, feed)
	return feed, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) feed(i int) *fakeFeed {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feeds[i]
}

type staticResolver struct {
	id  int64
	err error
}

func (r staticResolver) ResolveChatroomID(context.Context, string) (int64, error) {
	return r.id, r.err
}

// recordingHandler counts dispatched payloads per event.
type recordingHandler struct {
	mu       sync.Mutex
	payloads []string
}

func (h *recordingHandler) Handle(_ context.Context, _ string, payload json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, string(payload))
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

func testSession(dialer kick.Dialer, resolver kick.ChatroomResolver, registry events.Registry) *Session {
	return New("stream-1", "testchannel", resolver, dialer, registry, clockwork.NewRealClock(), slog.Default(), Options{
		PingInterval: time.Hour,
	})
}

func TestSessionSubscribesAfterAck(t *testing.T) {
	dialer := &fakeDialer{}
	handler := &recordingHandler{}
	sess := testSession(dialer, staticResolver{id: 123}, events.Registry{kick.EventChatMessage: handler})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, 5*time.Millisecond)
	feed := dialer.feed(0)

	// Connection ack, then one chat message.
	feed.push(t, "pusher:connection_established", map[string]any{})
	feed.push(t, kick.EventChatMessage, map[string]any{"content": "hi", "sender": map[string]any{"username": "alice"}})

	require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Subscribed, sess.State())

	writes := feed.written()
	require.NotEmpty(t, writes)
	subscribe := writes[0].(map[string]any)
	assert.Equal(t, "pusher:subscribe", subscribe["event"])
	data := subscribe["data"].(map[string]any)
	assert.Equal(t, "chatrooms.123.v2", data["channel"])

	cancel()
	assert.NoError(t, <-runErr)
	assert.Equal(t, Disconnected, sess.State())
}

func TestSessionSkipsSystemAndMalformedFrames(t *testing.T) {
	dialer := &fakeDialer{}
	handler := &recordingHandler{}
	sess := testSession(dialer, staticResolver{id: 123}, events.Registry{kick.EventChatMessage: handler})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, 5*time.Millisecond)
	feed := dialer.feed(0)

	feed.push(t, "pusher:connection_established", map[string]any{})
	feed.push(t, "pusher:pong", map[string]any{})
	feed.frames <- []byte("{malformed")
	feed.push(t, kick.EventChatMessage, map[string]any{"content": "still alive"})

	require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-runErr)
}

func TestSessionReturnsTransportErrorOnDrop(t *testing.T) {
	dialer := &fakeDialer{}
	sess := testSession(dialer, staticResolver{id: 123}, events.Registry{})

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(context.Background()) }()

	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, 5*time.Millisecond)
	feed := dialer.feed(0)
	feed.push(t, "pusher:connection_established", map[string]any{})

	// Remote drop, not a local stop. Run must come back on its own so the
	// supervisor can apply the reconnect policy.
	require.NoError(t, feed.Close())

	var err error
	select {
	case err = <-runErr:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate after transport drop")
	}
	var transportErr *domain.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, Disconnected, sess.State())
}

func TestSessionKeepAlivePings(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dialer := &fakeDialer{}
	sess := New("stream-1", "testchannel", staticResolver{id: 123}, dialer, events.Registry{}, clock, slog.Default(), Options{
		PingInterval: 30 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, 5*time.Millisecond)
	feed := dialer.feed(0)
	feed.push(t, "pusher:connection_established", map[string]any{})
	require.Eventually(t, func() bool { return sess.State() == Subscribed }, time.Second, 5*time.Millisecond)

	// Wait for the ticker to be armed before advancing.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Second)

	require.Eventually(t, func() bool {
		for _, w := range feed.written() {
			if msg, ok := w.(map[string]any); ok && msg["event"] == "pusher:ping" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// Run waits for the ticker goroutine, so a clean return proves it
	// stopped with the session.
	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate on stop")
	}
}

func TestSessionResolutionFailure(t *testing.T) {
	resolveErr := &domain.ResolutionError{Channel: "testchannel", Err: fmt.Errorf("boom")}
	sess := testSession(&fakeDialer{}, staticResolver{err: resolveErr}, events.Registry{})

	err := sess.Run(context.Background())

	var resolutionErr *domain.ResolutionError
	assert.ErrorAs(t, err, &resolutionErr)
	assert.Equal(t, Disconnected, sess.State())
}
