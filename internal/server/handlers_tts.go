package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/kickcast/internal/domain"
)

type ttsRequest struct {
	StreamID string `json:"stream_id"`
	Text     string `json:"text"`
	Username string `json:"username"`
	NoCache  bool   `json:"no_cache"`
}

// handleGenerateTTS synthesizes text on demand with the stream's configured
// backend and pushes the result to the stream's widgets. Meant for testing
// overlays without live chat.
func (s *Server) handleGenerateTTS(c echo.Context) error {
	var req ttsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.StreamID == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "stream_id and text are required")
	}
	if req.Username == "" {
		req.Username = "widget"
	}

	reg, err := s.store.Get(c.Request().Context(), req.StreamID)
	if err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stream")
	}

	synth, err := s.ttsFactory.ForStream(reg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build synthesizer")
	}

	res, err := synth.Generate(c.Request().Context(), req.Text, req.Username, !req.NoCache)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "synthesis failed")
	}

	notification := domain.NewTTSMessage(req.Username, req.Text, res.AudioURL, res.Cached, res.GenerationTimeMS)
	s.hub.Publish(req.StreamID, notification)

	return c.JSON(http.StatusOK, notification)
}
