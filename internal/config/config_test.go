package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "openai", cfg.TTSBackend)
	assert.Equal(t, "!s", cfg.TTSTrigger)
	assert.Equal(t, "!sticker", cfg.StickerKeyword)
	assert.Equal(t, time.Second, cfg.CooldownWindow)
	assert.Equal(t, time.Duration(0), cfg.DedupWindow)
	assert.Equal(t, 5, cfg.ReconnectMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.True(t, cfg.EnableTTS)
	assert.True(t, cfg.EnableSounds)
	assert.False(t, cfg.TTSAllMessages)
	assert.Contains(t, cfg.TTSAllowedBadges, "subscriber")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TTS_BACKEND", "espeak")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsSameFallback(t *testing.T) {
	t.Setenv("TTS_BACKEND", "openai")
	t.Setenv("TTS_FALLBACK_BACKEND", "openai")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadAcceptsFallbackPair(t *testing.T) {
	t.Setenv("TTS_BACKEND", "elevenlabs")
	t.Setenv("TTS_FALLBACK_BACKEND", "openai")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", cfg.TTSBackend)
	assert.Equal(t, "openai", cfg.TTSFallbackBackend)
}

func TestLoadRejectsBadLengths(t *testing.T) {
	t.Setenv("MIN_MESSAGE_LENGTH", "10")
	t.Setenv("MAX_MESSAGE_LENGTH", "5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeReconnects(t *testing.T) {
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TTS_TRIGGER", "!speak")
	t.Setenv("COOLDOWN_SECONDS", "5s")
	t.Setenv("TTS_ALLOWED_BADGES", "vip,og")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "!speak", cfg.TTSTrigger)
	assert.Equal(t, 5*time.Second, cfg.CooldownWindow)
	assert.Equal(t, []string{"vip", "og"}, cfg.TTSAllowedBadges)
}
