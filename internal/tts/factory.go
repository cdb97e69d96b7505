package tts

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/config"
	"github.com/pscheid92/kickcast/internal/domain"
)

// Factory builds synthesizers for stream registrations, sharing one cache
// and output directory across all backends.
type Factory struct {
	cfg    *config.Config
	cache  *Cache
	output *outputDir
	clock  clockwork.Clock
}

func NewFactory(cfg *config.Config, clock clockwork.Clock) (*Factory, error) {
	cache, err := NewCache(cfg.CacheDir, "/static/cache")
	if err != nil {
		return nil, err
	}
	output, err := newOutputDir(cfg.AudioOutputDir, "/static/audio", clock)
	if err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg, cache: cache, output: output, clock: clock}, nil
}

// ForStream builds the synthesizer for one registration: its selected
// backend (falling back to the configured default when unset), an optional
// per-stream voice override, request de-duplication, and the configured
// fallback backend if one is set.
func (f *Factory) ForStream(reg domain.StreamRegistration) (Synthesizer, error) {
	backend := reg.TTSBackend
	if backend == "" {
		backend = f.cfg.TTSBackend
	}

	primary, err := f.backend(backend, reg.VoiceID)
	if err != nil {
		return nil, err
	}

	var synth Synthesizer = primary
	if f.cfg.TTSFallbackBackend != "" && f.cfg.TTSFallbackBackend != backend {
		secondary, err := f.backend(f.cfg.TTSFallbackBackend, "")
		if err != nil {
			return nil, fmt.Errorf("fallback backend: %w", err)
		}
		synth = NewFallback(primary, secondary)
	}

	return NewDedupe(synth), nil
}

func (f *Factory) backend(name, voiceOverride string) (Synthesizer, error) {
	switch name {
	case domain.BackendElevenLabs:
		voice := f.cfg.ElevenLabsVoiceID
		if voiceOverride != "" {
			voice = voiceOverride
		}
		return NewElevenLabs(
			f.cfg.ElevenLabsAPIKey,
			voice,
			f.cfg.ElevenLabsModelID,
			ElevenLabsSettings{
				Stability:       f.cfg.ElevenLabsStability,
				SimilarityBoost: f.cfg.ElevenLabsSimilarityBoost,
				Style:           f.cfg.ElevenLabsStyle,
				Speed:           f.cfg.ElevenLabsSpeed,
			},
			f.cache, f.output, f.clock,
		)
	case domain.BackendOpenAI:
		voice := f.cfg.OpenAITTSVoice
		if voiceOverride != "" {
			voice = voiceOverride
		}
		return NewOpenAI(f.cfg.OpenAIAPIKey, f.cfg.OpenAITTSModel, voice, f.cfg.OpenAITTSSpeed, f.cache, f.output, f.clock)
	default:
		return nil, fmt.Errorf("unknown TTS backend %q", name)
	}
}
