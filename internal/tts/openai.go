package tts

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/metrics"
)

// OpenAI synthesizes speech with the OpenAI audio API.
type OpenAI struct {
	client openai.Client
	model  string
	voice  string
	speed  float64
	cache  *Cache
	output *outputDir
	clock  clockwork.Clock
}

func NewOpenAI(apiKey, model, voice string, speed float64, cache *Cache, output *outputDir, clock clockwork.Clock) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		voice:  voice,
		speed:  speed,
		cache:  cache,
		output: output,
		clock:  clock,
	}, nil
}

func (o *OpenAI) Name() string { return domain.BackendOpenAI }

func (o *OpenAI) Generate(ctx context.Context, text, username string, useCache bool) (Result, error) {
	start := o.clock.Now()
	key := o.cacheKey(text, username)

	if useCache {
		if url, ok := o.cache.Lookup(key, "mp3"); ok {
			metrics.TTSCacheHitsTotal.Inc()
			return Result{AudioURL: url, Cached: true, GenerationTimeMS: o.elapsedMS(start)}, nil
		}
	}

	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(o.speed),
	})
	if err != nil {
		metrics.TTSFailuresTotal.WithLabelValues(o.Name()).Inc()
		return Result{}, &domain.SynthesisError{Backend: o.Name(), Err: err}
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TTSFailuresTotal.WithLabelValues(o.Name()).Inc()
		return Result{}, &domain.SynthesisError{Backend: o.Name(), Err: err}
	}

	url, err := o.output.write(username, "mp3", audio)
	if err != nil {
		metrics.TTSFailuresTotal.WithLabelValues(o.Name()).Inc()
		return Result{}, &domain.SynthesisError{Backend: o.Name(), Err: err}
	}

	if useCache {
		_ = o.cache.Store(key, "mp3", audio)
	}

	elapsed := o.elapsedMS(start)
	metrics.TTSGenerationDuration.WithLabelValues(o.Name()).Observe(elapsed / 1000)
	return Result{AudioURL: url, Cached: false, GenerationTimeMS: elapsed}, nil
}

// cacheKey folds in the model, voice, and speed.
func (o *OpenAI) cacheKey(text, username string) string {
	return Key(text, username, o.model, o.voice, "speed="+strconv.FormatFloat(o.speed, 'f', -1, 64))
}

func (o *OpenAI) elapsedMS(start time.Time) float64 {
	return float64(o.clock.Since(start)) / float64(time.Millisecond)
}
