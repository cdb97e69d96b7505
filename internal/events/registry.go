package events

import (
	"context"
	"encoding/json"

	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/kick"
)

// Publisher delivers a notification to the subscribers of one stream.
type Publisher interface {
	Publish(streamID string, n domain.Notification)
}

// Handler processes one decoded feed event for a stream. Payload is the
// inner JSON document after the envelope's second decode pass.
type Handler interface {
	Handle(ctx context.Context, streamID string, payload json.RawMessage) error
}

// Registry maps feed event names to handlers. Built once per session.
type Registry map[string]Handler

// NewRegistry wires the closed set of recognized event categories.
func NewRegistry(chat *ChatHandler, subscription *SubscriptionHandler, follow *FollowHandler) Registry {
	return Registry{
		kick.EventChatMessage:  chat,
		kick.EventSubscription: subscription,
		kick.EventFollow:       follow,
	}
}

// Dispatch routes an event to its handler. Unrecognized events are dropped
// silently, matching the feed contract.
func (r Registry) Dispatch(ctx context.Context, streamID, event string, payload json.RawMessage) error {
	handler, ok := r[event]
	if !ok {
		return nil
	}
	return handler.Handle(ctx, streamID, payload)
}
