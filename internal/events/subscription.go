package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/kick"
)

// UserLookup resolves numeric user ids to usernames.
type UserLookup interface {
	GetUsername(ctx context.Context, userID int64) string
}

// SubscriptionHandler announces new channel subscribers, resolving each
// subscriber id to a username first.
type SubscriptionHandler struct {
	publisher Publisher
	users     UserLookup
	log       *slog.Logger
}

func NewSubscriptionHandler(publisher Publisher, users UserLookup, log *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{publisher: publisher, users: users, log: log}
}

func (h *SubscriptionHandler) Handle(ctx context.Context, streamID string, payload json.RawMessage) error {
	var p kick.SubscriptionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return &domain.DecodeError{Event: kick.EventSubscription, Err: err}
	}

	if len(p.UserIDs) == 0 {
		h.log.Warn("Subscription event with no user ids")
		return nil
	}

	h.log.Info("New subscriptions", "count", len(p.UserIDs))

	for _, userID := range p.UserIDs {
		username := h.users.GetUsername(ctx, userID)
		h.publisher.Publish(streamID, domain.NewSubscription(username, userID, p.ChannelID))
	}
	return nil
}
