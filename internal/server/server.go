// Package server exposes the HTTP surface: stream management API, widget
// WebSocket endpoint, static asset serving, and health/metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/kickcast/internal/assets"
	"github.com/pscheid92/kickcast/internal/config"
	"github.com/pscheid92/kickcast/internal/domain"
	"github.com/pscheid92/kickcast/internal/hub"
	"github.com/pscheid92/kickcast/internal/session"
	"github.com/pscheid92/kickcast/internal/storage"
	"github.com/pscheid92/kickcast/internal/tts"
)

// StreamSupervisor is the session lifecycle surface the API needs.
type StreamSupervisor interface {
	StartStream(ctx context.Context, reg domain.StreamRegistration) error
	StopStream(streamID string) error
	RestartStream(ctx context.Context, reg domain.StreamRegistration) error
	Running(streamID string) (session.State, bool)
	ChatroomID(streamID string) (int64, bool)
	ListRunning() map[string]session.State
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	store      *storage.Store
	supervisor StreamSupervisor
	hub        *hub.Hub
	sounds     *assets.SoundLibrary
	stickers   *assets.StickerLibrary
	ttsFactory *tts.Factory
	upgrader   websocket.Upgrader

	// baseCtx parents the sessions started via the API so they outlive
	// the HTTP request that created them.
	baseCtx context.Context
}

func NewServer(baseCtx context.Context, cfg *config.Config, store *storage.Store, supervisor StreamSupervisor, h *hub.Hub, sounds *assets.SoundLibrary, stickers *assets.StickerLibrary, ttsFactory *tts.Factory) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:       e,
		config:     cfg,
		store:      store,
		supervisor: supervisor,
		hub:        h,
		sounds:     sounds,
		stickers:   stickers,
		ttsFactory: ttsFactory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Widgets load from OBS browser sources and arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		baseCtx: baseCtx,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
