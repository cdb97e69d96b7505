package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/metrics"
	"github.com/pscheid92/kickcast/internal/retry"
)

// Factory builds a fresh session for a stream registration. The supervisor
// calls it once per StartStream so each stream gets its own handler chain.
type Factory func(reg domain.StreamRegistration) (*Session, error)

// Supervisor owns the lifecycle of all running sessions. Start and stop are
// serialized per stream id; the reconnect policy is applied when a session
// dies with a resolution or transport error.
type Supervisor struct {
	factory      Factory
	clock        clockwork.Clock
	log          *slog.Logger
	maxAttempts  int
	firstBackoff time.Duration

	mu       sync.Mutex
	sessions map[string]*handle
}

type handle struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// SupervisorOptions tunes the reconnect policy.
type SupervisorOptions struct {
	// ReconnectMaxAttempts bounds restart attempts per disconnect; 0
	// disables reconnection entirely.
	ReconnectMaxAttempts int
	ReconnectBackoff     time.Duration
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(factory Factory, clock clockwork.Clock, log *slog.Logger, opts SupervisorOptions) *Supervisor {
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 2 * time.Second
	}
	return &Supervisor{
		factory:      factory,
		clock:        clock,
		log:          log,
		maxAttempts:  opts.ReconnectMaxAttempts,
		firstBackoff: opts.ReconnectBackoff,
		sessions:     make(map[string]*handle),
	}
}

// StartStream launches a session for the registration. It fails with
// domain.ErrStreamExists when the stream is already running.
func (s *Supervisor) StartStream(ctx context.Context, reg domain.StreamRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[reg.StreamID]; ok {
		return domain.ErrStreamExists
	}

	sess, err := s.factory(reg)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{session: sess, cancel: cancel, done: make(chan struct{})}
	s.sessions[reg.StreamID] = h

	metrics.SessionsRunning.Inc()
	go s.supervise(runCtx, sess, h)
	return nil
}

// supervise runs the session and restarts it on resolution or transport
// errors until the reconnect budget is spent or the context ends.
func (s *Supervisor) supervise(ctx context.Context, sess *Session, h *handle) {
	defer close(h.done)
	defer s.remove(sess.StreamID())
	defer metrics.SessionsRunning.Dec()

	log := s.log.With("stream_id", sess.StreamID(), "channel", sess.Channel())

	// The first run is not a reconnect, so the attempt budget is the
	// configured reconnect count plus one.
	policy := retry.Policy{
		MaxAttempts:    s.maxAttempts + 1,
		InitialBackoff: s.firstBackoff,
		Clock:          s.clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			metrics.SessionReconnectsTotal.WithLabelValues(sess.StreamID()).Inc()
			log.Warn("Reconnecting session", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	err := retry.Do(ctx, policy, classifyRunError, func() error {
		return sess.Run(ctx)
	})
	if err != nil && ctx.Err() == nil {
		log.Error("Session terminated", "error", err)
		return
	}
	log.Info("Session ended")
}

// classifyRunError retries transient failures and gives up on anything else.
func classifyRunError(err error) retry.Action {
	var transport *domain.TransportError
	var resolution *domain.ResolutionError
	if errors.As(err, &transport) || errors.As(err, &resolution) {
		return retry.Retry
	}
	return retry.Stop
}

func (s *Supervisor) remove(streamID string) {
	s.mu.Lock()
	delete(s.sessions, streamID)
	s.mu.Unlock()
}

// StopStream cancels a running session and waits for its goroutine to exit.
func (s *Supervisor) StopStream(streamID string) error {
	s.mu.Lock()
	h, ok := s.sessions[streamID]
	if ok {
		delete(s.sessions, streamID)
	}
	s.mu.Unlock()

	if !ok {
		return domain.ErrStreamNotFound
	}

	h.cancel()
	<-h.done
	return nil
}

// RestartStream stops a session if running and starts it fresh.
func (s *Supervisor) RestartStream(ctx context.Context, reg domain.StreamRegistration) error {
	if err := s.StopStream(reg.StreamID); err != nil && !errors.Is(err, domain.ErrStreamNotFound) {
		return err
	}
	return s.StartStream(ctx, reg)
}

// StartAll launches sessions for every registration, logging failures
// instead of aborting so one bad stream cannot block the rest.
func (s *Supervisor) StartAll(ctx context.Context, regs []domain.StreamRegistration) {
	for _, reg := range regs {
		if err := s.StartStream(ctx, reg); err != nil {
			s.log.Error("Failed to start stream", "stream_id", reg.StreamID, "error", err)
		}
	}
}

// Running reports a single stream's live state.
func (s *Supervisor) Running(streamID string) (State, bool) {
	s.mu.Lock()
	h, ok := s.sessions[streamID]
	s.mu.Unlock()
	if !ok {
		return Disconnected, false
	}
	return h.session.State(), true
}

// ChatroomID reports the resolved chatroom id of a running stream.
func (s *Supervisor) ChatroomID(streamID string) (int64, bool) {
	s.mu.Lock()
	h, ok := s.sessions[streamID]
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	return h.session.ChatroomID(), true
}

// ListRunning returns the states of all live sessions keyed by stream id.
func (s *Supervisor) ListRunning() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]State, len(s.sessions))
	for id, h := range s.sessions {
		out[id] = h.session.State()
	}
	return out
}

// StopAll cancels every session and waits for all of them to exit.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	handles := make([]*handle, 0, len(s.sessions))
	for id, h := range s.sessions {
		delete(s.sessions, id)
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	for _, h := range handles {
		<-h.done
	}
}
