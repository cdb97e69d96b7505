package domain

import "time"

// TTS backend selectors stored on a stream registration.
const (
	BackendElevenLabs = "elevenlabs"
	BackendOpenAI     = "openai"
)

// StreamRegistration maps an externally assigned stream identifier to a
// Kick channel and the voice backend used for its TTS messages.
type StreamRegistration struct {
	StreamID   string    `json:"stream_id"`
	Channel    string    `json:"channel"`
	TTSBackend string    `json:"tts_backend"`
	VoiceID    string    `json:"voice_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
