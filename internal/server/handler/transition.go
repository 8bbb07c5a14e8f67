package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/pipeline"
)

// ChainLookup resolves a configured chain by id.
type ChainLookup interface {
	Chain(id string) (domain.Chain, error)
}

// TransitionReader pages through a chain's recorded phase changes.
type TransitionReader interface {
	Read(ctx context.Context, chainID, after string, limit int) (pipeline.TransitionPage, error)
}

// TransitionHandler serves the phase changes the watcher recorded.
type TransitionHandler struct {
	chains      ChainLookup
	transitions TransitionReader
	logger      *slog.Logger
}

// NewTransitionHandler creates a TransitionHandler.
func NewTransitionHandler(chains ChainLookup, transitions TransitionReader, logger *slog.Logger) *TransitionHandler {
	return &TransitionHandler{chains: chains, transitions: transitions, logger: logger}
}

// ListTransitions returns transitions after the given cursor, oldest first.
// GET /api/chains/{chain}/transitions?after=&limit=
func (h *TransitionHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	chain, err := h.chains.Chain(pathParam(r, "chain"))
	if err != nil {
		writeServiceError(w, r, h.logger, "list transitions", err)
		return
	}

	// Bad limits fall back to the default, as for question lists.
	var limit int
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}

	page, err := h.transitions.Read(r.Context(), chain.ID, r.URL.Query().Get("after"), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, "list transitions", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
