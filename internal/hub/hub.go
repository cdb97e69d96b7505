package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type streamClients map[*websocket.Conn]*clientWriter

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type subscribeCmd struct {
	baseHubCmd
	streamID     string
	connection   *websocket.Conn
	errorChannel chan error
}

type unsubscribeCmd struct {
	baseHubCmd
	streamID   string
	connection *websocket.Conn
}

type publishCmd struct {
	baseHubCmd
	streamID string
	data     []byte
	ntype    string
}

type clientCountCmd struct {
	baseHubCmd
	streamID     string
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub fans notifications out to the WebSocket subscribers of each stream.
// A notification published to one stream is never delivered to another.
type Hub struct {
	cmdCh               chan hubCmd
	clock               clockwork.Clock
	subscribers         map[string]streamClients
	done                chan struct{}
	maxClientsPerStream int
}

// New creates a hub and starts its actor goroutine.
// maxClientsPerStream limits connections per stream (resource exhaustion guard).
func New(clock clockwork.Clock, maxClientsPerStream int) *Hub {
	h := &Hub{
		cmdCh:               make(chan hubCmd, 256),
		clock:               clock,
		subscribers:         make(map[string]streamClients),
		done:                make(chan struct{}),
		maxClientsPerStream: maxClientsPerStream,
	}
	go h.run()
	return h
}

// Subscribe registers a connection for all subsequent notifications of one
// stream, until it disconnects.
func (h *Hub) Subscribe(streamID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- subscribeCmd{streamID: streamID, connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("subscribe command timed out after %v", commandTimeout)
	}
}

// Unsubscribe removes a connection from a stream.
func (h *Hub) Unsubscribe(streamID string, conn *websocket.Conn) {
	h.cmdCh <- unsubscribeCmd{streamID: streamID, connection: conn}
}

// Publish delivers a notification to every current subscriber of the
// stream. Best effort: a subscriber whose buffer is full is evicted,
// delivery to the rest proceeds.
func (h *Hub) Publish(streamID string, n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("Failed to marshal notification", "type", n.NotificationType(), "error", err)
		return
	}
	h.cmdCh <- publishCmd{streamID: streamID, data: data, ntype: n.NotificationType()}
}

// ClientCount returns the number of subscribers for a stream.
// Returns -1 if the command times out.
func (h *Hub) ClientCount(streamID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{streamID: streamID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all subscriber connections. Blocks until
// the actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case subscribeCmd:
			h.handleSubscribe(c)
		case unsubscribeCmd:
			h.handleUnsubscribe(c.streamID, c.connection)
		case publishCmd:
			h.handlePublish(c)
		case clientCountCmd:
			c.replyChannel <- len(h.subscribers[c.streamID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleSubscribe(c subscribeCmd) {
	clients, exists := h.subscribers[c.streamID]
	if !exists {
		clients = make(streamClients)
		h.subscribers[c.streamID] = clients
	}

	if h.maxClientsPerStream > 0 && len(clients) >= h.maxClientsPerStream {
		slog.Warn("Rejecting subscriber: max clients reached", "stream_id", c.streamID, "max_clients", h.maxClientsPerStream)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per stream (%d) reached", h.maxClientsPerStream)
		return
	}

	clients[c.connection] = newClientWriter(c.connection, h.clock)

	metrics.HubActiveStreams.Set(float64(len(h.subscribers)))
	metrics.HubConnectedClients.Inc()

	slog.Debug("Subscriber registered", "stream_id", c.streamID, "total_clients", len(clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnsubscribe(streamID string, conn *websocket.Conn) {
	clients, exists := h.subscribers[streamID]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.HubConnectedClients.Dec()

	if len(clients) == 0 {
		delete(h.subscribers, streamID)
		metrics.HubActiveStreams.Set(float64(len(h.subscribers)))
		slog.Debug("Last subscriber disconnected", "stream_id", streamID)
	} else {
		slog.Debug("Subscriber unregistered", "stream_id", streamID, "remaining_clients", len(clients))
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	metrics.HubNotificationsTotal.WithLabelValues(c.ntype).Inc()

	clients, exists := h.subscribers[c.streamID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow subscriber", "stream_id", c.streamID)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnsubscribe(c.streamID, conn)
	}
}

func (h *Hub) handleStop() {
	total := 0
	for streamID, clients := range h.subscribers {
		total += len(clients)
		for _, cw := range clients {
			cw.stopGraceful("Server shutting down")
		}
		delete(h.subscribers, streamID)
	}
	metrics.HubActiveStreams.Set(0)
	metrics.HubConnectedClients.Sub(float64(total))
	slog.Info("Hub shutdown complete", "disconnected_clients", total)
}
