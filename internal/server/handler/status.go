package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// IndexerReporter reports how far each subgraph trails its chain.
type IndexerReporter interface {
	Status(ctx context.Context) []domain.IndexerStatus
}

// StatusHandler serves the backend status (mode, uptime, chains, indexer
// lag) for the dashboard.
type StatusHandler struct {
	Mode      string
	StartedAt time.Time
	Chains    []string
	Watching  bool
	Indexers  IndexerReporter
}

// NewStatusHandler creates a StatusHandler. indexers may be nil.
func NewStatusHandler(mode string, startedAt time.Time, chains []string, watching bool, indexers IndexerReporter) *StatusHandler {
	return &StatusHandler{Mode: mode, StartedAt: startedAt, Chains: chains, Watching: watching, Indexers: indexers}
}

// GetStatus responds with the current backend mode and what it serves.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.Mode,
		"started_at":     h.StartedAt.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
		"chains":         h.Chains,
		"watcher":        h.Watching,
	}
	if h.Indexers != nil {
		body["indexers"] = h.Indexers.Status(r.Context())
	}
	writeJSON(w, http.StatusOK, body)
}
