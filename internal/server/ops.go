package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// OpsHandler exposes liveness endpoints.
type OpsHandler struct {
	Now func() time.Time
}

func (h *OpsHandler) Register(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/api/health", h.health)
}

func (h *OpsHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "VerificaPessoa API is running"})
}

// health
//
//	@Router	/api/health [get]
func (h *OpsHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "healthy", "timestamp": h.Now().UTC()})
}
