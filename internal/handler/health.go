package handler

import (
	"net/http"
	"time"

	"github.com/aulatrack/class-tracker/internal/service"
)

type HealthHandler struct {
	health *service.HealthService
}

func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.health.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status.Status,
		"components": status.Components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
