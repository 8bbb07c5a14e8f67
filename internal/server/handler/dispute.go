package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// QuestionGetter loads a single question.
type QuestionGetter interface {
	Get(ctx context.Context, chainID, questionID string) (domain.Question, error)
}

// DisputeService defines what the dispute handler needs from the service layer.
type DisputeService interface {
	ForQuestion(ctx context.Context, chainID string, q domain.Question) (domain.DisputeView, error)
	Court() domain.Court
}

// DisputeHandler serves the arbitration endpoints.
type DisputeHandler struct {
	questions QuestionGetter
	disputes  DisputeService
	logger    *slog.Logger
}

// NewDisputeHandler creates a DisputeHandler.
func NewDisputeHandler(questions QuestionGetter, disputes DisputeService, logger *slog.Logger) *DisputeHandler {
	return &DisputeHandler{
		questions: questions,
		disputes:  disputes,
		logger:    logHandler(logger, "disputes"),
	}
}

// GetDispute resolves the dispute raised on a question and returns its
// detail rows, meta-evidence and evidence.
// GET /api/chains/{chain}/questions/{id}/dispute
func (h *DisputeHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	chainID := pathParam(r, "chain")

	q, err := h.questions.Get(r.Context(), chainID, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get dispute question", err)
		return
	}

	view, err := h.disputes.ForQuestion(r.Context(), chainID, q)
	if err != nil {
		writeServiceError(w, r, h.logger, "get dispute", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetCourt returns the court summary shown next to disputes.
// GET /api/court
func (h *DisputeHandler) GetCourt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.disputes.Court())
}
