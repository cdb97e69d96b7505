package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/kickcast/internal/domain"
)

type streamRequest struct {
	StreamID   string `json:"stream_id"`
	Channel    string `json:"channel"`
	TTSBackend string `json:"tts_backend"`
	VoiceID    string `json:"voice_id"`
}

type streamResponse struct {
	domain.StreamRegistration
	State      string `json:"state"`
	ChatroomID int64  `json:"chatroom_id,omitempty"`
}

func (s *Server) streamView(reg domain.StreamRegistration) streamResponse {
	resp := streamResponse{StreamRegistration: reg, State: "stopped"}
	if st, ok := s.supervisor.Running(reg.StreamID); ok {
		resp.State = st.String()
		if id, ok := s.supervisor.ChatroomID(reg.StreamID); ok {
			resp.ChatroomID = id
		}
	}
	return resp
}

func (s *Server) handleListStreams(c echo.Context) error {
	regs, err := s.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list streams")
	}

	out := make([]streamResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, s.streamView(reg))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateStream(c echo.Context) error {
	var req streamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.StreamID == "" || req.Channel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "stream_id and channel are required")
	}
	if req.TTSBackend == "" {
		req.TTSBackend = s.config.TTSBackend
	}
	if req.TTSBackend != domain.BackendOpenAI && req.TTSBackend != domain.BackendElevenLabs {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown tts_backend")
	}

	reg := domain.StreamRegistration{
		StreamID:   req.StreamID,
		Channel:    req.Channel,
		TTSBackend: req.TTSBackend,
		VoiceID:    req.VoiceID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Add(c.Request().Context(), reg); err != nil {
		if errors.Is(err, domain.ErrStreamExists) {
			return echo.NewHTTPError(http.StatusConflict, "stream already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store stream")
	}

	// Registered but unable to start is still a success for the API; the
	// restart endpoint recovers it.
	if err := s.supervisor.StartStream(s.baseCtx, reg); err != nil && !errors.Is(err, domain.ErrStreamExists) {
		c.Logger().Errorf("failed to start session for %s: %v", reg.StreamID, err)
	}

	return c.JSON(http.StatusCreated, s.streamView(reg))
}

func (s *Server) handleGetStream(c echo.Context) error {
	reg, err := s.store.Get(c.Request().Context(), c.Param("stream_id"))
	if err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stream")
	}
	return c.JSON(http.StatusOK, s.streamView(reg))
}

func (s *Server) handleUpdateStream(c echo.Context) error {
	streamID := c.Param("stream_id")

	var req streamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	current, err := s.store.Get(c.Request().Context(), streamID)
	if err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stream")
	}

	if req.Channel != "" {
		current.Channel = req.Channel
	}
	if req.TTSBackend != "" {
		if req.TTSBackend != domain.BackendOpenAI && req.TTSBackend != domain.BackendElevenLabs {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown tts_backend")
		}
		current.TTSBackend = req.TTSBackend
	}
	if req.VoiceID != "" {
		current.VoiceID = req.VoiceID
	}

	if err := s.store.Update(c.Request().Context(), current); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update stream")
	}

	if err := s.supervisor.RestartStream(s.baseCtx, current); err != nil {
		c.Logger().Errorf("failed to restart session for %s: %v", streamID, err)
	}

	return c.JSON(http.StatusOK, s.streamView(current))
}

func (s *Server) handleDeleteStream(c echo.Context) error {
	streamID := c.Param("stream_id")

	if err := s.store.Delete(c.Request().Context(), streamID); err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete stream")
	}

	if err := s.supervisor.StopStream(streamID); err != nil && !errors.Is(err, domain.ErrStreamNotFound) {
		c.Logger().Errorf("failed to stop session for %s: %v", streamID, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRestartStream(c echo.Context) error {
	reg, err := s.store.Get(c.Request().Context(), c.Param("stream_id"))
	if err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "stream not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stream")
	}

	if err := s.supervisor.RestartStream(s.baseCtx, reg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to restart session")
	}
	return c.JSON(http.StatusOK, s.streamView(reg))
}

func (s *Server) handleListSounds(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"sounds": s.sounds.List()})
}

func (s *Server) handleListStickers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"stickers": s.stickers.List()})
}
