package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Stream management API
	s.echo.GET("/api/streams", s.handleListStreams)
	s.echo.POST("/api/streams", s.handleCreateStream)
	s.echo.GET("/api/streams/:stream_id", s.handleGetStream)
	s.echo.PUT("/api/streams/:stream_id", s.handleUpdateStream)
	s.echo.DELETE("/api/streams/:stream_id", s.handleDeleteStream)
	s.echo.POST("/api/streams/:stream_id/restart", s.handleRestartStream)

	// Asset discovery for dashboard widgets
	s.echo.GET("/api/sounds", s.handleListSounds)
	s.echo.GET("/api/stickers", s.handleListStickers)

	// Manual synthesis trigger for overlay testing
	s.echo.POST("/api/tts", s.handleGenerateTTS)

	// Widget notification feed
	s.echo.GET("/ws/:stream_id/events", s.handleWidgetSocket)

	// Generated audio and static assets
	s.echo.Static("/static/audio", s.config.AudioOutputDir)
	s.echo.Static("/static/sounds", s.config.SoundsDir)
	s.echo.Static("/static/cache", s.config.CacheDir)
	s.echo.Static("/static/stickers", s.config.StickersDir)
}
