package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks connectivity of one backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and backend-connectivity probes.
type HealthHandler struct {
	backends map[string]Pinger
}

// NewHealthHandler creates a HealthHandler over the named backends.
func NewHealthHandler(backends map[string]Pinger) *HealthHandler {
	return &HealthHandler{backends: backends}
}

// Live handles GET /live: process liveness only.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health handles GET /health: reports per-backend connectivity. Degraded
// backends do not fail the probe; the retrieval ladder covers them.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	backends := make(map[string]string, len(h.backends))
	for name, p := range h.backends {
		if err := p.Ping(ctx); err != nil {
			backends[name] = "unavailable"
		} else {
			backends[name] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "backends": backends})
}
