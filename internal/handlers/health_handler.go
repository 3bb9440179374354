package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sofia/internal/clock"
	"sofia/internal/registry"
	"sofia/internal/services"
)

// StatsFunc reports the service registry contents.
type StatsFunc func() registry.Stats

// HealthHandler reports liveness and collaborator configuration.
type HealthHandler struct {
	assistant services.AssistantServicer
	stats     StatsFunc
	clock     clock.Clock
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(assistant services.AssistantServicer, stats StatsFunc, clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &HealthHandler{assistant: assistant, stats: stats, clock: clk}
}

// HealthResponse describes the running service.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Assistant services.AssistantStatus `json:"assistant"`
	Services  *registry.Stats          `json:"services,omitempty"`
}

// Health reports liveness, whether the AI collaborators are configured, and
// the constructed services. It is mounted outside the versioned API.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: h.clock.Now(),
		Assistant: h.assistant.Status(),
	}
	if h.stats != nil {
		stats := h.stats()
		resp.Services = &stats
	}
	c.JSON(http.StatusOK, resp)
}
