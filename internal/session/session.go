package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/events"
	"github.com/pscheid92/kickcast/internal/kick"
	"github.com/pscheid92/kickcast/internal/metrics"
	"golang.org/x/time/rate"
)

// State is the connection state of a session.
type State int32

const (
	Disconnected State = iota
	ResolvingRoom
	Connected
	Subscribed
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ResolvingRoom:
		return "resolving_room"
	case Connected:
		return "connected"
	case Subscribed:
		return "subscribed"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is one stream's feed client. Run is the only writer of its
// processing state; it may be called again after it returns, which is how
// the supervisor reconnects.
type Session struct {
	streamID string
	channel  string

	resolver     kick.ChatroomResolver
	dialer       kick.Dialer
	registry     events.Registry
	pingInterval time.Duration
	clock        clockwork.Clock
	limiter      *rate.Limiter
	log          *slog.Logger

	state      atomic.Int32
	chatroomID atomic.Int64
}

// Options configures a session beyond its identity.
type Options struct {
	PingInterval time.Duration
	// MessageRateLimit caps processed events per second; 0 disables.
	MessageRateLimit float64
	MessageRateBurst int
}

// New creates a session for one stream registration.
func New(streamID, channel string, resolver kick.ChatroomResolver, dialer kick.Dialer, registry events.Registry, clock clockwork.Clock, log *slog.Logger, opts Options) *Session {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}

	var limiter *rate.Limiter
	if opts.MessageRateLimit > 0 {
		burst := opts.MessageRateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.MessageRateLimit), burst)
	}

	return &Session{
		streamID:     streamID,
		channel:      channel,
		resolver:     resolver,
		dialer:       dialer,
		registry:     registry,
		pingInterval: opts.PingInterval,
		clock:        clock,
		limiter:      limiter,
		log:          log,
	}
}

// StreamID returns the owning stream identifier.
func (s *Session) StreamID() string { return s.streamID }

// Channel returns the configured chat channel.
func (s *Session) Channel() string { return s.channel }

// State returns the current connection state.
func (s *Session) State() State { return State(s.state.Load()) }

// ChatroomID returns the last resolved chatroom id, zero before the first
// resolution succeeds.
func (s *Session) ChatroomID() int64 { return s.chatroomID.Load() }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Run executes the session until the feed drops or ctx is cancelled.
// A nil return means an explicit stop; any error is a resolution or
// transport failure. Per-message errors never terminate the run.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(Disconnected)

	s.setState(ResolvingRoom)
	s.log.Info("Connecting to channel", "channel", s.channel)

	chatroomID, err := s.resolver.ResolveChatroomID(ctx, s.channel)
	if err != nil {
		return err
	}
	s.chatroomID.Store(chatroomID)

	feed, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	s.setState(Connected)

	// runCtx links the read loop, the keep-alive ticker, and the
	// close-on-cancel watcher under one cancellation scope.
	runCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	// Cancel must happen before the wait or the watcher below never wakes
	// on an error return.
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		if ctx.Err() != nil {
			s.setState(Closing)
		}
		_ = feed.Close()
	}()

	// First frame is the connection ack; its content is not used.
	if _, err := feed.ReadMessage(); err != nil {
		return &domain.TransportError{Op: "connection ack", Err: err}
	}

	if err := feed.WriteJSON(kick.SubscribeMessage(chatroomID)); err != nil {
		return &domain.TransportError{Op: "subscribe", Err: err}
	}
	s.setState(Subscribed)
	s.log.Info("Subscribed to chatroom", "chatroom_id", chatroomID)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.keepAlive(runCtx, feed)
	}()

	for {
		raw, err := feed.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("Session stopped")
				return nil
			}
			return &domain.TransportError{Op: "read", Err: err}
		}

		if s.limiter != nil && !s.limiter.Allow() {
			metrics.FeedRateLimitedTotal.Inc()
			continue
		}

		s.process(runCtx, raw)
	}
}

// keepAlive sends a liveness ping at the configured interval for the life
// of the connection.
func (s *Session) keepAlive(ctx context.Context, feed kick.Feed) {
	ticker := s.clock.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := feed.WriteJSON(kick.PingMessage()); err != nil {
				s.log.Debug("Keep-alive ping failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// process decodes one frame and dispatches it. Errors are logged and the
// frame dropped; the loop continues.
func (s *Session) process(ctx context.Context, raw []byte) {
	env, err := kick.DecodeEnvelope(raw)
	if err != nil {
		metrics.FeedDecodeErrorsTotal.Inc()
		s.log.Error("Failed to decode frame", "error", err)
		return
	}

	if kick.IsSystemEvent(env.Event) {
		return
	}
	if !kick.IsAppEvent(env.Event) {
		metrics.FeedEventsTotal.WithLabelValues(env.Event, "dropped").Inc()
		return
	}

	if err := s.registry.Dispatch(ctx, s.streamID, env.Event, json.RawMessage(env.Data)); err != nil {
		metrics.FeedEventsTotal.WithLabelValues(env.Event, "error").Inc()
		s.log.Error("Event handler failed", "event", env.Event, "error", err)
		return
	}
	metrics.FeedEventsTotal.WithLabelValues(env.Event, "handled").Inc()
}
