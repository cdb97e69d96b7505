package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/kickcast/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
	})
}

// handleReadiness reports ready once the store answers and includes the
// count of live sessions.
func (s *Server) handleReadiness(c echo.Context) error {
	if _, err := s.store.List(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "database not reachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ok",
		"running_sessions": len(s.supervisor.ListRunning()),
	})
}
