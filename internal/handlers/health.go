package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

const readinessTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	DB db.Pinger
}

// Handle implements GET /healthz. It only proves the process is serving.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Healthcheck implements GET /api/v1/healthcheck. When a database is wired it
// must answer within readinessTimeout for the check to pass.
func (h HealthHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()
		if err := h.DB.Ping(pingCtx); err != nil {
			logging.FromContext(ctx).Warn("database unreachable", "error", err)
			response.Error(ctx, w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	response.JSON(ctx, w, http.StatusOK, map[string]string{"status": "OK"}, "health check passed")
}
