package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	redis  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. redis may be nil when the process
// runs without the signal bus.
func NewHealthHandler(redis Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{redis: redis, logger: logger}
}

// HealthCheck responds with the liveness of the process and its Redis
// connection. An unreachable Redis degrades the status but still answers 200,
// since the question and dispute views do not depend on it.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "handler: redis ping failed",
				slog.String("error", err.Error()),
			)
			body["status"] = "degraded"
			body["redis"] = "unreachable"
		} else {
			body["redis"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}
