package handlers

import (
	"context"
	"net/http"

	"github.com/labelstack/hub/internal/api/response"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Ready handles GET /readyz: the service is ready when the database responds.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, "Service Unavailable", "database is unreachable")
		return
	}

	response.RespondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
