package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/assets"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/kick"
	"github.com/pscheid92/kickcast/internal/tts"
)

// Kick emotes render as [emote:37226:KEKW] — graphical, not speakable.
var emotePattern = regexp.MustCompile(`(?i)\[emote:\d+:[^\]]+\]`)

// Policy holds the chat reaction rules for one stream.
type Policy struct {
	BotUsername       string
	CooldownWindow    time.Duration
	MinMessageLength  int
	MaxMessageLength  int
	DedupWindow       time.Duration
	Prefix            string
	MaxSynthesisChars int
	TriggerToken      string
	StickerKeyword    string
	EnableTTS         bool
	EnableSounds      bool
	AllMessages       bool
	FollowersOnly     bool
	AllowedBadges     []string
}

// ChatHandler applies the command and message policy to chat events.
// All mutable state is owned by the session's single processing goroutine,
// so no locking is needed.
type ChatHandler struct {
	policy    Policy
	tts       tts.Synthesizer
	sounds    *assets.SoundLibrary
	stickers  *assets.StickerLibrary
	publisher Publisher
	clock     clockwork.Clock
	log       *slog.Logger

	lastAction     map[string]time.Time
	lastSpokenText string
	lastSpokenAt   time.Time
}

func NewChatHandler(policy Policy, synth tts.Synthesizer, sounds *assets.SoundLibrary, stickers *assets.StickerLibrary, publisher Publisher, clock clockwork.Clock, log *slog.Logger) *ChatHandler {
	if policy.BotUsername == "" {
		policy.BotUsername = "kickbot"
	}
	return &ChatHandler{
		policy:     policy,
		tts:        synth,
		sounds:     sounds,
		stickers:   stickers,
		publisher:  publisher,
		clock:      clock,
		log:        log,
		lastAction: make(map[string]time.Time),
	}
}

func (h *ChatHandler) Handle(ctx context.Context, streamID string, payload json.RawMessage) error {
	var msg kick.ChatMessagePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return &domain.DecodeError{Event: kick.EventChatMessage, Err: err}
	}

	username := msg.Sender.Username
	if strings.EqualFold(username, h.policy.BotUsername) {
		return nil
	}

	h.log.Info("Chat message", "username", username, "content", msg.Content)

	if !h.passCooldown(username) {
		h.log.Debug("Cooldown active, ignoring message", "username", username)
		return nil
	}

	content := strings.TrimSpace(msg.Content)

	// Legacy mode: every message is spoken, commands are not parsed.
	if h.policy.AllMessages {
		if h.policy.EnableTTS {
			h.speak(ctx, streamID, username, content)
		}
		return nil
	}

	if h.isStickerCommand(content) {
		h.handleSticker(streamID, username, content)
		return nil
	}

	if rest, ok := strings.CutPrefix(content, h.policy.TriggerToken+" "); ok && h.policy.EnableTTS {
		h.handleTrigger(ctx, streamID, username, msg.Sender, rest)
		return nil
	}

	if strings.HasPrefix(content, "!") && h.policy.EnableSounds {
		h.handleSound(streamID, username, content)
		return nil
	}

	return nil
}

// passCooldown enforces the per-sender window, updating the timestamp on
// acceptance. Keys are lowercase usernames.
func (h *ChatHandler) passCooldown(username string) bool {
	key := strings.ToLower(username)
	now := h.clock.Now()

	if last, ok := h.lastAction[key]; ok && now.Sub(last) < h.policy.CooldownWindow {
		return false
	}
	h.lastAction[key] = now
	return true
}

func (h *ChatHandler) isStickerCommand(content string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && strings.EqualFold(fields[0], h.policy.StickerKeyword)
}

func (h *ChatHandler) handleSticker(streamID, username, content string) {
	fields := strings.Fields(content)
	if len(fields) < 2 || !assets.ValidStickerName(fields[1]) {
		h.log.Warn("Invalid or missing sticker name", "username", username, "content", content)
		return
	}

	name := fields[1]
	sticker, ok := h.stickers.Resolve(name)
	if !ok {
		h.log.Warn("Sticker not found", "sticker", name, "username", username)
		return
	}

	h.publisher.Publish(streamID, domain.NewSticker(sticker.Name, sticker.ImageURL, sticker.AudioURL, username))
}

func (h *ChatHandler) handleTrigger(ctx context.Context, streamID, username string, sender kick.Sender, rest string) {
	text := strings.TrimSpace(rest)
	if text == "" {
		return
	}

	if h.policy.FollowersOnly && !h.hasAllowedBadge(sender) {
		h.log.Debug("Sender lacks required badge, ignoring TTS command", "username", username)
		return
	}

	h.speak(ctx, streamID, username, text)
}

func (h *ChatHandler) hasAllowedBadge(sender kick.Sender) bool {
	for _, badge := range sender.Identity.Badges {
		for _, allowed := range h.policy.AllowedBadges {
			if strings.EqualFold(badge.Type, allowed) {
				return true
			}
		}
	}
	return false
}

func (h *ChatHandler) handleSound(streamID, username, content string) {
	name := content[1:]
	if i := strings.IndexFunc(name, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
		name = name[:i]
	}

	url, ok := h.sounds.URL(name)
	if !ok {
		h.log.Warn("Sound not found", "sound", name, "username", username)
		return
	}

	h.log.Info("Playing sound", "sound", name, "username", username)
	h.publisher.Publish(streamID, domain.NewSoundEffect(name, url, username))
}

// speak runs the TTS synthesis path for a candidate text.
func (h *ChatHandler) speak(ctx context.Context, streamID, username, content string) {
	if utf8.RuneCountInString(content) < h.policy.MinMessageLength {
		h.log.Debug("Message too short, skipping TTS", "username", username)
		return
	}

	if emotePattern.MatchString(content) {
		h.log.Debug("Message contains emote, skipping TTS", "username", username)
		return
	}

	display := content
	content = truncateRunes(content, h.policy.MaxMessageLength)

	normalized := strings.ToLower(strings.TrimSpace(content))
	if h.policy.DedupWindow > 0 && normalized != "" {
		if normalized == h.lastSpokenText && h.clock.Since(h.lastSpokenAt) < h.policy.DedupWindow {
			h.log.Debug("Duplicate text within dedup window, skipping TTS", "username", username)
			return
		}
	}

	spoken := strings.ReplaceAll(h.policy.Prefix, "{username}", username) + content
	if h.policy.MaxSynthesisChars > 0 {
		spoken = truncateRunes(spoken, h.policy.MaxSynthesisChars)
	}

	res, err := h.tts.Generate(ctx, spoken, username, true)
	if err != nil {
		h.log.Error("TTS generation failed", "username", username, "error", err)
		return
	}

	if h.policy.DedupWindow > 0 && normalized != "" {
		h.lastSpokenText = normalized
		h.lastSpokenAt = h.clock.Now()
	}

	h.publisher.Publish(streamID, domain.NewTTSMessage(username, display, res.AudioURL, res.Cached, res.GenerationTimeMS))
	h.log.Info("TTS generated",
		"username", username,
		"audio_url", res.AudioURL,
		"cached", res.Cached,
		"generation_time_ms", res.GenerationTimeMS,
	)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
