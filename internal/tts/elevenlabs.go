package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/metrics"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// ElevenLabsSettings are the voice knobs sent with every request. They are
// part of the cache key: changing any of them produces new audio.
type ElevenLabsSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	Speed           float64
}

// ElevenLabs synthesizes speech over the ElevenLabs HTTP API.
type ElevenLabs struct {
	apiKey   string
	voiceID  string
	modelID  string
	settings ElevenLabsSettings
	httpc    *http.Client
	cache    *Cache
	output   *outputDir
	clock    clockwork.Clock
}

// NewElevenLabs creates the backend. voiceID may carry a per-stream
// override; cache and output control where audio lands on disk.
func NewElevenLabs(apiKey, voiceID, modelID string, settings ElevenLabsSettings, cache *Cache, output *outputDir, clock clockwork.Clock) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: api key is required")
	}
	return &ElevenLabs{
		apiKey:   apiKey,
		voiceID:  voiceID,
		modelID:  modelID,
		settings: settings,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
		output:   output,
		clock:    clock,
	}, nil
}

func (e *ElevenLabs) Name() string { return domain.BackendElevenLabs }

func (e *ElevenLabs) Generate(ctx context.Context, text, username string, useCache bool) (Result, error) {
	start := e.clock.Now()
	key := e.cacheKey(text, username)

	if useCache {
		if url, ok := e.cache.Lookup(key, "mp3"); ok {
			metrics.TTSCacheHitsTotal.Inc()
			return Result{AudioURL: url, Cached: true, GenerationTimeMS: e.elapsedMS(start)}, nil
		}
	}

	audio, err := e.convert(ctx, text)
	if err != nil {
		metrics.TTSFailuresTotal.WithLabelValues(e.Name()).Inc()
		return Result{}, &domain.SynthesisError{Backend: e.Name(), Err: err}
	}

	url, err := e.output.write(username, "mp3", audio)
	if err != nil {
		metrics.TTSFailuresTotal.WithLabelValues(e.Name()).Inc()
		return Result{}, &domain.SynthesisError{Backend: e.Name(), Err: err}
	}

	if useCache {
		_ = e.cache.Store(key, "mp3", audio)
	}

	elapsed := e.elapsedMS(start)
	metrics.TTSGenerationDuration.WithLabelValues(e.Name()).Observe(elapsed / 1000)
	return Result{AudioURL: url, Cached: false, GenerationTimeMS: elapsed}, nil
}

func (e *ElevenLabs) convert(ctx context.Context, text string) ([]byte, error) {
	body := map[string]any{
		"text":     text,
		"model_id": e.modelID,
		"voice_settings": map[string]any{
			"stability":        e.settings.Stability,
			"similarity_boost": e.settings.SimilarityBoost,
			"style":            e.settings.Style,
			"speed":            e.settings.Speed,
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := elevenLabsBaseURL + "/text-to-speech/" + e.voiceID + "?output_format=mp3_44100_128"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(detail))
	}
	return io.ReadAll(resp.Body)
}

// cacheKey folds in the voice identity, model, and every voice knob.
func (e *ElevenLabs) cacheKey(text, username string) string {
	return Key(
		text,
		username,
		e.voiceID,
		e.modelID,
		"stability="+strconv.FormatFloat(e.settings.Stability, 'f', -1, 64),
		"similarity="+strconv.FormatFloat(e.settings.SimilarityBoost, 'f', -1, 64),
		"style="+strconv.FormatFloat(e.settings.Style, 'f', -1, 64),
		"speed="+strconv.FormatFloat(e.settings.Speed, 'f', -1, 64),
	)
}

func (e *ElevenLabs) elapsedMS(start time.Time) float64 {
	return float64(e.clock.Since(start)) / float64(time.Millisecond)
}
