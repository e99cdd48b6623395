package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/airsync/pkg/api/types"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	backend string
}

// NewHealthHandler creates a health handler reporting the configured backend.
// An empty backend means the engine runs offline.
func NewHealthHandler(backend string) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the API and the configured backend
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	backend := h.backend
	if backend == "" {
		status = "degraded"
		backend = "offline"
	}

	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    status,
		Backend:   backend,
		Timestamp: time.Now(),
	})
}
