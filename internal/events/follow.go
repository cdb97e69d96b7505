package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/kick"
)

// FollowHandler announces new followers.
type FollowHandler struct {
	publisher Publisher
	log       *slog.Logger
}

func NewFollowHandler(publisher Publisher, log *slog.Logger) *FollowHandler {
	return &FollowHandler{publisher: publisher, log: log}
}

func (h *FollowHandler) Handle(_ context.Context, streamID string, payload json.RawMessage) error {
	var p kick.FollowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return &domain.DecodeError{Event: kick.EventFollow, Err: err}
	}

	username := p.FollowerName()
	h.log.Info("New follower", "username", username, "followed", p.Followed.Username)

	h.publisher.Publish(streamID, domain.NewFollow(username, p.Followed.Username))
	return nil
}
