package tts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSynth counts Generate calls and returns a configurable result.
type countingSynth struct {
	name    string
	calls   atomic.Int64
	err     error
	release chan struct{} // when set, Generate blocks until closed
}

func (s *countingSynth) Name() string { return s.name }

func (s *countingSynth) Generate(_ context.Context, text, _ string, _ bool) (Result, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{AudioURL: "/static/audio/" + s.name + ".mp3"}, nil
}

func TestKeyIsDeterministicAndParameterSensitive(t *testing.T) {
	a := Key("hello", "alice", "voice-1")
	b := Key("hello", "alice", "voice-1")
	assert.Equal(t, a, b)

	// Any knob change produces a different key.
	assert.NotEqual(t, a, Key("hello", "alice", "voice-2"))
	assert.NotEqual(t, a, Key("hello", "bob", "voice-1"))
	assert.NotEqual(t, a, Key("hi", "alice", "voice-1"))
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache, err := NewCache(t.TempDir(), "/static/cache/")
	require.NoError(t, err)

	key := Key("hello", "alice")
	_, ok := cache.Lookup(key, "mp3")
	require.False(t, ok)

	require.NoError(t, cache.Store(key, "mp3", []byte("audio")))

	url, ok := cache.Lookup(key, "mp3")
	require.True(t, ok)
	assert.Equal(t, "/static/cache/"+key+".mp3", url)

	// A different extension is a different entry.
	_, ok = cache.Lookup(key, "wav")
	assert.False(t, ok)
}

func TestFallbackDelegatesOnPrimaryFailure(t *testing.T) {
	primary := &countingSynth{name: "elevenlabs", err: errors.New("quota exceeded")}
	secondary := &countingSynth{name: "openai"}
	f := NewFallback(primary, secondary)

	res, err := f.Generate(context.Background(), "hello", "alice", true)
	require.NoError(t, err)
	assert.Equal(t, "/static/audio/openai.mp3", res.AudioURL)
	assert.Equal(t, int64(1), primary.calls.Load())
	assert.Equal(t, int64(1), secondary.calls.Load())
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &countingSynth{name: "elevenlabs"}
	secondary := &countingSynth{name: "openai"}
	f := NewFallback(primary, secondary)

	res, err := f.Generate(context.Background(), "hello", "alice", true)
	require.NoError(t, err)
	assert.Equal(t, "/static/audio/elevenlabs.mp3", res.AudioURL)
	assert.Zero(t, secondary.calls.Load())
}

func TestFallbackCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	primary := &countingSynth{name: "elevenlabs", err: errors.New("down")}
	secondary := &countingSynth{name: "openai"}
	f := NewFallback(primary, secondary)

	for i := 0; i < 5; i++ {
		_, err := f.Generate(context.Background(), "hello", "alice", true)
		require.NoError(t, err)
	}

	// After three consecutive failures the circuit is open and the
	// primary is no longer called.
	assert.Equal(t, int64(3), primary.calls.Load())
	assert.Equal(t, int64(5), secondary.calls.Load())
}

func TestDedupeCollapsesConcurrentRequests(t *testing.T) {
	inner := &countingSynth{name: "openai", release: make(chan struct{})}
	d := NewDedupe(inner)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]Result, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := d.Generate(context.Background(), "hello", "alice", true)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give the workers time to pile onto the in-flight call.
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int64(1), inner.calls.Load())
	for _, res := range results {
		assert.Equal(t, "/static/audio/openai.mp3", res.AudioURL)
	}
}

func TestDedupeBypassedWithoutCache(t *testing.T) {
	inner := &countingSynth{name: "openai"}
	d := NewDedupe(inner)

	for i := 0; i < 3; i++ {
		_, err := d.Generate(context.Background(), "hello", "alice", false)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), inner.calls.Load())
}
