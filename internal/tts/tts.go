package tts

import (
	"context"
)

// Result is the outcome of one synthesis request.
type Result struct {
	AudioURL         string
	Cached           bool
	GenerationTimeMS float64
}

// Synthesizer turns text into a playable audio resource URL.
type Synthesizer interface {
	// Generate synthesizes text, optionally consulting the audio cache.
	Generate(ctx context.Context, text, username string, useCache bool) (Result, error)
	// Name identifies the backend for logging and metrics.
	Name() string
}
