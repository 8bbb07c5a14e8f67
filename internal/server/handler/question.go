package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// QuestionService defines the methods that the question handler requires from
// the service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type QuestionService interface {
	Chains() []domain.Chain
	Chain(id string) (domain.Chain, error)
	Query(ctx context.Context, chainID string, filter domain.QuestionFilter) (domain.QuestionPage, error)
	Get(ctx context.Context, chainID, questionID string) (domain.Question, error)
}

// QuestionHandler serves chain and question endpoints.
type QuestionHandler struct {
	questions QuestionService
	logger    *slog.Logger
}

// NewQuestionHandler creates a QuestionHandler with the given service and logger.
func NewQuestionHandler(questions QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		logger:    logHandler(logger, "questions"),
	}
}

// ListChains returns the configured chains.
// GET /api/chains
func (h *QuestionHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chains": h.questions.Chains(),
	})
}

// ListQuestions returns one page of a chain's questions, filtered by phase
// and free-text search.
// GET /api/chains/{chain}/questions?phase=OPEN&q=rain&page=1&limit=20
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQuestionFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, "list questions", err)
		return
	}

	page, err := h.questions.Query(r.Context(), pathParam(r, "chain"), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, "list questions", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetQuestion returns a single question with its answer history.
// GET /api/chains/{chain}/questions/{id}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Get(r.Context(), pathParam(r, "chain"), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get question", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
