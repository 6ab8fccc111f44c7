package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vodomat/fieldsync/pkg/api"
)

// HealthHandler handles liveness probes
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// Health handles GET /health. Always reports ok; the client uses this
// as its reachability probe before a sync.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(h.logger, w, api.HealthResponse{Status: "ok"}, http.StatusOK)
}
