package tts

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Dedupe collapses concurrent generations of identical requests into a
// single backend call. Keyed by text and username, which together determine
// the cache entry for a fixed backend configuration.
type Dedupe struct {
	inner Synthesizer
	group singleflight.Group
}

func NewDedupe(inner Synthesizer) *Dedupe {
	return &Dedupe{inner: inner}
}

func (d *Dedupe) Name() string { return d.inner.Name() }

func (d *Dedupe) Generate(ctx context.Context, text, username string, useCache bool) (Result, error) {
	if !useCache {
		return d.inner.Generate(ctx, text, username, useCache)
	}

	key := Key(text, username)
	res, err, _ := d.group.Do(key, func() (any, error) {
		return d.inner.Generate(ctx, text, username, useCache)
	})
	if err != nil {
		return Result{}, err
	}
	return res.(Result), nil
}
