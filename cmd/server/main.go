package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/kickcast/internal/assets"
	"github.com/pscheid92/kickcast/internal/config"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/events"
	"github.com/pscheid92/kickcast/internal/hub"
	"github.com/pscheid92/kickcast/internal/kick"
	"github.com/pscheid92/kickcast/internal/logging"
	"github.com/pscheid92/kickcast/internal/redis"
	"github.com/pscheid92/kickcast/internal/server"
	"github.com/pscheid92/kickcast/internal/session"
	"github.com/pscheid92/kickcast/internal/storage"
	"github.com/pscheid92/kickcast/internal/tts"
	"github.com/pscheid92/kickcast/internal/version"
)

func setupConfig() *config.Config {
	// Missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config) *storage.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	return store
}

func setupResolver(cfg *config.Config, client *kick.Client) (kick.ChatroomResolver, *goredis.Client) {
	if cfg.RedisURL == "" {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return kick.NewCachedResolver(client, rdb, cfg.ChatroomCacheTTL), rdb
}

// sessionFactory builds a session with its own handler chain so per-stream
// state (cooldowns, dedup, voice selection) never crosses streams.
func sessionFactory(cfg *config.Config, resolver kick.ChatroomResolver, client *kick.Client, ttsFactory *tts.Factory, notifications *hub.Hub, clock clockwork.Clock) session.Factory {
	policy := events.Policy{
		CooldownWindow:    cfg.CooldownWindow,
		MinMessageLength:  cfg.MinMessageLength,
		MaxMessageLength:  cfg.MaxMessageLength,
		DedupWindow:       cfg.DedupWindow,
		Prefix:            cfg.TTSPrefix,
		MaxSynthesisChars: cfg.TTSMaxChars,
		TriggerToken:      cfg.TTSTrigger,
		StickerKeyword:    cfg.StickerKeyword,
		EnableTTS:         cfg.EnableTTS,
		EnableSounds:      cfg.EnableSounds,
		AllMessages:       cfg.TTSAllMessages,
		FollowersOnly:     cfg.TTSFollowersOnly,
		AllowedBadges:     cfg.TTSAllowedBadges,
	}

	sounds := assets.NewSoundLibrary(cfg.SoundsDir, "/static/sounds")
	stickers := assets.NewStickerLibrary(cfg.StickersDir, "/static/stickers")
	dialer := kick.NewWebsocketDialer(cfg.KickWebsocketURL, cfg.HandshakeTimeout)

	return func(reg domain.StreamRegistration) (*session.Session, error) {
		synth, err := ttsFactory.ForStream(reg)
		if err != nil {
			return nil, err
		}

		streamLog := logging.WithChannel(reg.StreamID, reg.Channel)
		chat := events.NewChatHandler(policy, synth, sounds, stickers, notifications, clock, streamLog)
		subs := events.NewSubscriptionHandler(notifications, client, streamLog)
		follows := events.NewFollowHandler(notifications, streamLog)
		registry := events.NewRegistry(chat, subs, follows)

		return session.New(reg.StreamID, reg.Channel, resolver, dialer, registry, clock, streamLog, session.Options{
			PingInterval:     cfg.PingInterval,
			MessageRateLimit: cfg.MessageRateLimit,
			MessageRateBurst: cfg.MessageRateBurst,
		}), nil
	}
}

func runGracefulShutdown(cancel context.CancelFunc, srv *server.Server, supervisor *session.Supervisor, notifications *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancel()
		supervisor.StopAll()
		notifications.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	build := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", build.Version, "commit", build.Commit)

	store := setupStore(cfg)
	defer func() { _ = store.Close() }()

	client := kick.NewClient(cfg.KickAPIBaseURL, cfg.ResolveTimeout)
	resolver, rdb := setupResolver(cfg, client)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	ttsFactory, err := tts.NewFactory(cfg, clock)
	if err != nil {
		slog.Error("Failed to set up TTS", "error", err)
		os.Exit(1)
	}

	notifications := hub.New(clock, cfg.WSMaxClientsPerStream)

	// rootCtx parents every session; cancelled on shutdown.
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := sessionFactory(cfg, resolver, client, ttsFactory, notifications, clock)
	supervisor := session.NewSupervisor(factory, clock, slog.Default(), session.SupervisorOptions{
		ReconnectMaxAttempts: cfg.ReconnectMaxAttempts,
		ReconnectBackoff:     cfg.ReconnectInitialBackoff,
	})

	startCtx, cancelStart := context.WithTimeout(rootCtx, 10*time.Second)
	regs, err := store.List(startCtx)
	cancelStart()
	if err != nil {
		slog.Error("Failed to load stream registrations", "error", err)
		os.Exit(1)
	}
	supervisor.StartAll(rootCtx, regs)
	slog.Info("Sessions started", "count", len(regs))

	sounds := assets.NewSoundLibrary(cfg.SoundsDir, "/static/sounds")
	stickers := assets.NewStickerLibrary(cfg.StickersDir, "/static/stickers")
	srv := server.NewServer(rootCtx, cfg, store, supervisor, notifications, sounds, stickers, ttsFactory)

	done := runGracefulShutdown(cancel, srv, supervisor, notifications)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
