package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, populated from environment variables.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	Port      string `env:"PORT" envDefault:"8000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/streams.db"`
	RedisURL     string `env:"REDIS_URL"`

	// Widget fan-out
	WSMaxClientsPerStream int           `env:"WS_MAX_CLIENTS_PER_STREAM" envDefault:"20"`
	ChatroomCacheTTL      time.Duration `env:"CHATROOM_CACHE_TTL" envDefault:"24h"`

	// Kick feed
	KickAPIBaseURL   string        `env:"KICK_API_BASE_URL" envDefault:"https://kick.com/api/v2"`
	KickWebsocketURL string        `env:"KICK_WEBSOCKET_URL" envDefault:"wss://ws-us2.pusher.com/app/32cbd69e4b950bf97679"`
	ResolveTimeout   time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"10s"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"10s"`
	PingInterval     time.Duration `env:"PING_INTERVAL" envDefault:"30s"`

	// Session restart policy. 0 attempts disables reconnection entirely.
	ReconnectMaxAttempts    int           `env:"RECONNECT_MAX_ATTEMPTS" envDefault:"5"`
	ReconnectInitialBackoff time.Duration `env:"RECONNECT_INITIAL_BACKOFF" envDefault:"2s"`

	// TTS backends
	TTSBackend         string `env:"TTS_BACKEND" envDefault:"openai"`
	TTSFallbackBackend string `env:"TTS_FALLBACK_BACKEND"`

	ElevenLabsAPIKey          string  `env:"ELEVEN_LABS_API_KEY"`
	ElevenLabsVoiceID         string  `env:"ELEVEN_LABS_VOICE_ID" envDefault:"86V9x9hrQds83qf7zaGn"`
	ElevenLabsModelID         string  `env:"ELEVEN_LABS_MODEL_ID" envDefault:"eleven_multilingual_v2"`
	ElevenLabsStability       float64 `env:"ELEVEN_LABS_STABILITY" envDefault:"0.4"`
	ElevenLabsSimilarityBoost float64 `env:"ELEVEN_LABS_SIMILARITY_BOOST" envDefault:"0.8"`
	ElevenLabsStyle           float64 `env:"ELEVEN_LABS_STYLE" envDefault:"0.2"`
	ElevenLabsSpeed           float64 `env:"ELEVEN_LABS_SPEED" envDefault:"0.92"`

	OpenAIAPIKey   string  `env:"OPENAI_API_KEY"`
	OpenAITTSModel string  `env:"OPENAI_TTS_MODEL" envDefault:"tts-1"`
	OpenAITTSVoice string  `env:"OPENAI_TTS_VOICE" envDefault:"alloy"`
	OpenAITTSSpeed float64 `env:"OPENAI_TTS_SPEED" envDefault:"1.0"`

	// Asset layout
	AudioOutputDir string `env:"AUDIO_OUTPUT_DIR" envDefault:"static/audio"`
	SoundsDir      string `env:"SOUNDS_DIR" envDefault:"static/sounds"`
	CacheDir       string `env:"CACHE_DIR" envDefault:"static/cache"`
	StickersDir    string `env:"STICKERS_DIR" envDefault:"static/stickers"`

	// Chat policy
	MinMessageLength int           `env:"MIN_MESSAGE_LENGTH" envDefault:"2"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"200"`
	CooldownWindow   time.Duration `env:"COOLDOWN_SECONDS" envDefault:"1s"`
	DedupWindow      time.Duration `env:"TTS_SKIP_DUPLICATE_SECONDS" envDefault:"0s"`
	TTSPrefix        string        `env:"TTS_PREFIX"`
	TTSMaxChars      int           `env:"TTS_MAX_CHARS" envDefault:"0"`
	TTSTrigger       string        `env:"TTS_TRIGGER" envDefault:"!s"`
	StickerKeyword   string        `env:"STICKER_KEYWORD" envDefault:"!sticker"`
	EnableTTS        bool          `env:"ENABLE_TTS" envDefault:"true"`
	EnableSounds     bool          `env:"ENABLE_SOUNDS" envDefault:"true"`
	TTSAllMessages   bool          `env:"TTS_ALL_MESSAGES" envDefault:"false"`
	TTSFollowersOnly bool          `env:"TTS_FOLLOWERS_ONLY" envDefault:"false"`
	TTSAllowedBadges []string      `env:"TTS_ALLOWED_BADGES" envSeparator:"," envDefault:"follower,subscriber,moderator,og,vip"`
	MessageRateLimit float64       `env:"MESSAGE_RATE_LIMIT" envDefault:"0"`
	MessageRateBurst int           `env:"MESSAGE_RATE_BURST" envDefault:"10"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validateBackend(cfg.TTSBackend); err != nil {
		return nil, err
	}
	if cfg.TTSFallbackBackend != "" {
		if err := validateBackend(cfg.TTSFallbackBackend); err != nil {
			return nil, err
		}
		if cfg.TTSFallbackBackend == cfg.TTSBackend {
			return nil, fmt.Errorf("TTS_FALLBACK_BACKEND must differ from TTS_BACKEND")
		}
	}

	if cfg.MinMessageLength < 0 {
		return nil, fmt.Errorf("MIN_MESSAGE_LENGTH must not be negative")
	}
	if cfg.MaxMessageLength < cfg.MinMessageLength {
		return nil, fmt.Errorf("MAX_MESSAGE_LENGTH must be >= MIN_MESSAGE_LENGTH")
	}
	if cfg.ReconnectMaxAttempts < 0 {
		return nil, fmt.Errorf("RECONNECT_MAX_ATTEMPTS must not be negative")
	}

	return cfg, nil
}

func validateBackend(backend string) error {
	switch backend {
	case "openai", "elevenlabs":
		return nil
	default:
		return fmt.Errorf("unknown TTS backend %q (use 'openai' or 'elevenlabs')", backend)
	}
}
