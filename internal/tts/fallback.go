package tts

import (
	"context"
	"log/slog"
	"time"

	"github.com/pscheid92/kickcast/internal/metrics"
	"github.com/sony/gobreaker"
)

// Fallback is a composite synthesizer: every primary failure delegates to
// the secondary with the same return shape. A circuit breaker stops
// hammering a degraded primary; while the circuit is open, requests go
// straight to the secondary.
type Fallback struct {
	primary   Synthesizer
	secondary Synthesizer
	breaker   *gobreaker.CircuitBreaker
}

func NewFallback(primary, secondary Synthesizer) *Fallback {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tts-" + primary.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("TTS circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Fallback{primary: primary, secondary: secondary, breaker: breaker}
}

func (f *Fallback) Name() string { return f.primary.Name() }

func (f *Fallback) Generate(ctx context.Context, text, username string, useCache bool) (Result, error) {
	res, err := f.breaker.Execute(func() (any, error) {
		return f.primary.Generate(ctx, text, username, useCache)
	})
	if err == nil {
		return res.(Result), nil
	}

	slog.Warn("TTS primary failed, delegating to fallback",
		"primary", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"error", err,
	)
	metrics.TTSFailoversTotal.Inc()

	return f.secondary.Generate(ctx, text, username, useCache)
}
