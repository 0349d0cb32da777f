package handler

import (
	"context"
	"net/http"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose reachability decides readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// DetailsReporter is a Pinger that can also describe itself, e.g. its connection pool
type DetailsReporter interface {
	HealthDetails() map[string]any
}

// HealthHandler answers liveness probes
type HealthHandler struct {
	pinger Pinger
	logger coreport.Logger
}

// NewHealthHandler creates a health handler. pinger may be nil.
func NewHealthHandler(pinger Pinger, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{pinger: pinger, logger: logger}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", map[string]any{"error": err})
			c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
			return
		}
	}

	response := dto.HealthResponse{Status: "ok"}
	if reporter, ok := h.pinger.(DetailsReporter); ok {
		response.Details = reporter.HealthDetails()
	}
	c.JSON(http.StatusOK, response)
}
