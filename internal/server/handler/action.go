package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// ActionService records the mutating dashboard actions. Nothing reaches the
// chain; see service.ActionService.
type ActionService interface {
	SubmitAnswer(ctx context.Context, chainID, questionID string, req domain.AnswerRequest) (domain.ActionReceipt, error)
	CastVote(ctx context.Context, chainID, questionID string, req domain.VoteRequest) (domain.ActionReceipt, error)
	SubmitEvidence(ctx context.Context, chainID, questionID string, req domain.EvidenceRequest) (domain.ActionReceipt, error)
}

// WalletProvider reports the identity the dashboard acts as.
type WalletProvider interface {
	Wallet() domain.Wallet
}

// ActionHandler serves the answer, vote and evidence endpoints.
type ActionHandler struct {
	actions ActionService
	wallet  WalletProvider
	logger  *slog.Logger
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(actions ActionService, wallet WalletProvider, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		actions: actions,
		wallet:  wallet,
		logger:  logHandler(logger, "actions"),
	}
}

// SubmitAnswer records an answer to a question.
// POST /api/chains/{chain}/questions/{id}/answers
func (h *ActionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req domain.AnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "submit answer", err)
		return
	}
	receipt, err := h.actions.SubmitAnswer(r.Context(), pathParam(r, "chain"), pathParam(r, "id"), req)
	h.respond(w, r, "submit answer", receipt, err)
}

// CastVote records a juror vote on the question's dispute.
// POST /api/chains/{chain}/questions/{id}/votes
func (h *ActionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req domain.VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "cast vote", err)
		return
	}
	receipt, err := h.actions.CastVote(r.Context(), pathParam(r, "chain"), pathParam(r, "id"), req)
	h.respond(w, r, "cast vote", receipt, err)
}

// SubmitEvidence records evidence for the question's dispute.
// POST /api/chains/{chain}/questions/{id}/evidence
func (h *ActionHandler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var req domain.EvidenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "submit evidence", err)
		return
	}
	receipt, err := h.actions.SubmitEvidence(r.Context(), pathParam(r, "chain"), pathParam(r, "id"), req)
	h.respond(w, r, "submit evidence", receipt, err)
}

// GetWallet returns the connected wallet, if any.
// GET /api/wallet
func (h *ActionHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.wallet.Wallet())
}

// respond writes 202 with the receipt: the action was accepted by the
// dashboard but not submitted anywhere.
func (h *ActionHandler) respond(w http.ResponseWriter, r *http.Request, op string, receipt domain.ActionReceipt, err error) {
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}
