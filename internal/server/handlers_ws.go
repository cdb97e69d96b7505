package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/kickcast/internal/domain"
)

// handleWidgetSocket upgrades the connection and subscribes it to the
// stream's notification feed. The read loop exists only to surface the
// client closing; widgets never send application frames.
func (s *Server) handleWidgetSocket(c echo.Context) error {
	streamID := c.Param("stream_id")

	if _, err := s.store.Get(c.Request().Context(), streamID); err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stream")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	if err := s.hub.Subscribe(streamID, conn); err != nil {
		slog.Warn("Widget subscribe rejected", "stream_id", streamID, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "stream at capacity"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return nil
	}

	slog.Debug("Widget connected", "stream_id", streamID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unsubscribe(streamID, conn)
	slog.Debug("Widget disconnected", "stream_id", streamID)
	return nil
}
