package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/kickcast/internal/assets"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/kick"
	"github.com/pscheid92/kickcast/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records published notifications.
type fakePublisher struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (p *fakePublisher) Publish(_ string, n domain.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
}

func (p *fakePublisher) all() []domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Notification(nil), p.notifications...)
}

// fakeSynth records synthesis requests and returns a fixed result.
type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *fakeSynth) Name() string { return "fake" }

func (s *fakeSynth) Generate(_ context.Context, text, _ string, _ bool) (tts.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return tts.Result{}, s.err
	}
	s.texts = append(s.texts, text)
	return tts.Result{AudioURL: "/static/audio/out.mp3", GenerationTimeMS: 12}, nil
}

func (s *fakeSynth) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func defaultPolicy() Policy {
	return Policy{
		MinMessageLength: 2,
		MaxMessageLength: 200,
		TriggerToken:     "!s",
		StickerKeyword:   "!sticker",
		EnableTTS:        true,
		EnableSounds:     true,
	}
}

type chatFixture struct {
	handler   *ChatHandler
	publisher *fakePublisher
	synth     *fakeSynth
	clock     *clockwork.FakeClock
}

func newChatFixture(t *testing.T, policy Policy) *chatFixture {
	t.Helper()

	soundsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(soundsDir, "airhorn.mp3"), []byte("x"), 0o644))

	stickersDir := t.TempDir()
	partyDir := filepath.Join(stickersDir, "party")
	require.NoError(t, os.MkdirAll(partyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(partyDir, "sticker.gif"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(partyDir, "sound.mp3"), []byte("x"), 0o644))

	publisher := &fakePublisher{}
	synth := &fakeSynth{}
	clock := clockwork.NewFakeClock()

	handler := NewChatHandler(policy, synth,
		assets.NewSoundLibrary(soundsDir, "/static/sounds"),
		assets.NewStickerLibrary(stickersDir, "/static/stickers"),
		publisher, clock, slog.Default())

	return &chatFixture{handler: handler, publisher: publisher, synth: synth, clock: clock}
}

func (f *chatFixture) send(t *testing.T, username, content string, badges ...string) {
	t.Helper()

	msg := kick.ChatMessagePayload{
		Content: content,
		Sender:  kick.Sender{ID: 1, Username: username},
	}
	for _, b := range badges {
		msg.Sender.Identity.Badges = append(msg.Sender.Identity.Badges, kick.Badge{Type: b})
	}

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(context.Background(), "stream-1", payload))
}

func TestChatHandlerIgnoresBotMessages(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "kickbot", "!s hello everyone")
	f.send(t, "KickBot", "!airhorn")

	assert.Empty(t, f.publisher.all())
	assert.Empty(t, f.synth.requested())
}

func TestChatHandlerCooldown(t *testing.T) {
	policy := defaultPolicy()
	policy.CooldownWindow = time.Second
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!airhorn")
	// Same user, different case, still inside the window.
	f.send(t, "ALICE", "!airhorn")
	require.Len(t, f.publisher.all(), 1)

	// A different user is not affected.
	f.send(t, "bob", "!airhorn")
	require.Len(t, f.publisher.all(), 2)

	f.clock.Advance(time.Second)
	f.send(t, "alice", "!airhorn")
	assert.Len(t, f.publisher.all(), 3)
}

func TestChatHandlerSoundCommand(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!airhorn")

	notifications := f.publisher.all()
	require.Len(t, notifications, 1)
	sound, ok := notifications[0].(domain.SoundEffect)
	require.True(t, ok)
	assert.Equal(t, "airhorn", sound.SoundName)
	assert.Equal(t, "/static/sounds/airhorn.mp3", sound.AudioURL)
	assert.Equal(t, "alice", sound.Username)
}

func TestChatHandlerUnknownSound(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!doesnotexist")

	assert.Empty(t, f.publisher.all())
}

func TestChatHandlerSoundTrailingTextIgnored(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!airhorn lol")

	notifications := f.publisher.all()
	require.Len(t, notifications, 1)
	sound := notifications[0].(domain.SoundEffect)
	assert.Equal(t, "airhorn", sound.SoundName)
}

func TestChatHandlerStickerCommand(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!sticker party")

	notifications := f.publisher.all()
	require.Len(t, notifications, 1)
	sticker, ok := notifications[0].(domain.Sticker)
	require.True(t, ok)
	assert.Equal(t, "party", sticker.StickerName)
	assert.Equal(t, "/static/stickers/party/sticker.gif", sticker.ImageURL)
	assert.Equal(t, "/static/stickers/party/sound.mp3", sticker.AudioURL)
}

func TestChatHandlerStickerRejectsBadNames(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!sticker ../etc")
	f.send(t, "alice", "!sticker")
	f.send(t, "alice", "!sticker unknown")

	assert.Empty(t, f.publisher.all())
}

func TestChatHandlerTTSTrigger(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!s hola a todos")

	require.Equal(t, []string{"hola a todos"}, f.synth.requested())

	notifications := f.publisher.all()
	require.Len(t, notifications, 1)
	msg, ok := notifications[0].(domain.TTSMessage)
	require.True(t, ok)
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, "hola a todos", msg.Text)
	assert.Equal(t, "/static/audio/out.mp3", msg.AudioURL)
	assert.False(t, msg.Cached)
}

func TestChatHandlerTTSPrefix(t *testing.T) {
	policy := defaultPolicy()
	policy.Prefix = "{username} says: "
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!s hello")

	require.Equal(t, []string{"alice says: hello"}, f.synth.requested())

	// The display text never includes the prefix.
	msg := f.publisher.all()[0].(domain.TTSMessage)
	assert.Equal(t, "hello", msg.Text)
}

func TestChatHandlerTTSTooShort(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!s a")

	assert.Empty(t, f.synth.requested())
	assert.Empty(t, f.publisher.all())
}

func TestChatHandlerTTSRejectsEmotes(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "!s [emote:37226:KEKW]")
	f.send(t, "alice", "!s nice one [emote:37226:KEKW]")

	assert.Empty(t, f.synth.requested())
}

func TestChatHandlerTTSTruncation(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxMessageLength = 5
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!s hello world")

	// Synthesis sees the truncated text, the notification the full one.
	require.Equal(t, []string{"hello"}, f.synth.requested())
	msg := f.publisher.all()[0].(domain.TTSMessage)
	assert.Equal(t, "hello world", msg.Text)
}

func TestChatHandlerBadgeGating(t *testing.T) {
	policy := defaultPolicy()
	policy.FollowersOnly = true
	policy.AllowedBadges = []string{"follower", "subscriber"}
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!s hello there")
	assert.Empty(t, f.synth.requested())

	f.send(t, "bob", "!s hello there", "subscriber")
	assert.Equal(t, []string{"hello there"}, f.synth.requested())
}

func TestChatHandlerDedup(t *testing.T) {
	policy := defaultPolicy()
	policy.DedupWindow = 10 * time.Second
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!s hello world")
	// Same text after normalization, inside the window.
	f.send(t, "bob", "!s  HELLO WORLD ")
	require.Len(t, f.synth.requested(), 1)

	f.clock.Advance(11 * time.Second)
	f.send(t, "carol", "!s hello world")
	assert.Len(t, f.synth.requested(), 2)
}

func TestChatHandlerDedupNotUpdatedOnFailure(t *testing.T) {
	policy := defaultPolicy()
	policy.DedupWindow = 10 * time.Second
	f := newChatFixture(t, policy)

	f.synth.err = errors.New("backend down")
	f.send(t, "alice", "!s hello world")
	assert.Empty(t, f.publisher.all())

	// The failed attempt must not arm the duplicate filter.
	f.synth.err = nil
	f.send(t, "bob", "!s hello world")
	assert.Len(t, f.publisher.all(), 1)
}

func TestChatHandlerAllMessagesMode(t *testing.T) {
	policy := defaultPolicy()
	policy.AllMessages = true
	f := newChatFixture(t, policy)

	f.send(t, "alice", "good morning chat")
	// Commands are not parsed in this mode; the text is spoken as-is.
	f.send(t, "bob", "!airhorn")

	assert.Equal(t, []string{"good morning chat", "!airhorn"}, f.synth.requested())
}

func TestChatHandlerPlainMessageIgnored(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	f.send(t, "alice", "just chatting along")

	assert.Empty(t, f.synth.requested())
	assert.Empty(t, f.publisher.all())
}

func TestChatHandlerDisabledFeatures(t *testing.T) {
	policy := defaultPolicy()
	policy.EnableTTS = false
	policy.EnableSounds = false
	f := newChatFixture(t, policy)

	f.send(t, "alice", "!s hello there")
	f.send(t, "alice", "!airhorn")

	assert.Empty(t, f.publisher.all())
}

func TestChatHandlerMalformedPayload(t *testing.T) {
	f := newChatFixture(t, defaultPolicy())

	err := f.handler.Handle(context.Background(), "stream-1", json.RawMessage(`{not json`))

	var decodeErr *domain.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
