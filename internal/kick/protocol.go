package kick

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pscheid92/kickcast/internal/domain"
)

// Feed event names as sent by the relay.
const (
	EventChatMessage  = `App\Events\ChatMessageEvent`
	EventSubscription = `App\Events\ChannelSubscriptionEvent`
	EventFollow       = `App\Events\FollowEvent`
)

const appEventPrefix = `App\Events\`

// system/control events dropped silently by sessions
var systemEvents = map[string]struct{}{
	"pusher:connection_established":          {},
	"pusher_internal:subscription_succeeded": {},
	"pusher:pong":                            {},
}

// Envelope is the outer frame shape. Data is a JSON-encoded string that
// needs a second decode pass into the event-specific payload.
type Envelope struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// DecodeEnvelope parses a raw frame into an Envelope.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, &domain.DecodeError{Err: err}
	}
	return env, nil
}

// IsSystemEvent reports whether the event is relay housekeeping.
func IsSystemEvent(event string) bool {
	_, ok := systemEvents[event]
	return ok
}

// IsAppEvent reports whether the event belongs to the Kick application
// namespace.
func IsAppEvent(event string) bool {
	return strings.HasPrefix(event, appEventPrefix)
}

// SubscribeMessage builds the frame that subscribes to a chatroom. The v2
// channel suffix is required for chat messages.
func SubscribeMessage(chatroomID int64) map[string]any {
	return map[string]any{
		"event": "pusher:subscribe",
		"data": map[string]any{
			"auth":    "",
			"channel": ChannelName(chatroomID),
		},
	}
}

// PingMessage builds the keep-alive frame.
func PingMessage() map[string]any {
	return map[string]any{
		"event": "pusher:ping",
		"data":  map[string]any{},
	}
}

// ChannelName returns the pusher channel for a chatroom.
func ChannelName(chatroomID int64) string {
	return "chatrooms." + strconv.FormatInt(chatroomID, 10) + ".v2"
}
