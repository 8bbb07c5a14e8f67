package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oracleview/internal/chain"
	"github.com/alanyoungcy/oracleview/internal/domain"
)

const notSubmitted = "recorded locally; nothing was submitted on-chain"

// ActionService accepts answers, votes and evidence and acknowledges them
// without any on-chain effect.
type ActionService struct {
	chains map[string]struct{}
	wallet *WalletService
	now    func() time.Time
	logger *slog.Logger
}

// NewActionService creates an ActionService acting as wallet. Actions on a
// chain outside chains fail with domain.ErrUnknownChain.
func NewActionService(chains []domain.Chain, wallet *WalletService, logger *slog.Logger) *ActionService {
	known := make(map[string]struct{}, len(chains))
	for _, c := range chains {
		known[c.ID] = struct{}{}
	}
	return &ActionService{
		chains: known,
		wallet: wallet,
		now:    time.Now,
		logger: logger,
	}
}

func (s *ActionService) checkChain(chainID string) error {
	if _, ok := s.chains[chainID]; !ok {
		return fmt.Errorf("action_service: chain %q: %w", chainID, domain.ErrUnknownChain)
	}
	return nil
}

// SubmitAnswer validates a proposed answer and its bond.
func (s *ActionService) SubmitAnswer(ctx context.Context, chainID, questionID string, req domain.AnswerRequest) (domain.ActionReceipt, error) {
	if err := s.checkChain(chainID); err != nil {
		return domain.ActionReceipt{}, err
	}
	if strings.TrimSpace(req.Answer) == "" {
		return domain.ActionReceipt{}, fmt.Errorf("action_service: answer is required: %w", domain.ErrInvalidInput)
	}
	if req.Bond != "" {
		bond, ok := new(big.Int).SetString(req.Bond, 10)
		if !ok || bond.Sign() <= 0 {
			return domain.ActionReceipt{}, fmt.Errorf("action_service: bond %q must be a positive wei amount: %w", req.Bond, domain.ErrInvalidInput)
		}
	}
	return s.accept(ctx, domain.ActionAnswer, chainID, questionID,
		slog.String("answer", req.Answer),
		slog.String("bond", req.Bond),
	)
}

// CastVote validates a juror vote.
func (s *ActionService) CastVote(ctx context.Context, chainID, questionID string, req domain.VoteRequest) (domain.ActionReceipt, error) {
	if err := s.checkChain(chainID); err != nil {
		return domain.ActionReceipt{}, err
	}
	if strings.TrimSpace(req.Choice) == "" {
		return domain.ActionReceipt{}, fmt.Errorf("action_service: vote choice is required: %w", domain.ErrInvalidInput)
	}
	return s.accept(ctx, domain.ActionVote, chainID, questionID,
		slog.String("choice", req.Choice),
		slog.Int("justification_len", len(req.Justification)),
	)
}

// SubmitEvidence validates an evidence item.
func (s *ActionService) SubmitEvidence(ctx context.Context, chainID, questionID string, req domain.EvidenceRequest) (domain.ActionReceipt, error) {
	if err := s.checkChain(chainID); err != nil {
		return domain.ActionReceipt{}, err
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
		return domain.ActionReceipt{}, fmt.Errorf("action_service: evidence name and description are required: %w", domain.ErrInvalidInput)
	}
	return s.accept(ctx, domain.ActionEvidence, chainID, questionID,
		slog.String("name", req.Name),
		slog.String("file_uri", req.FileURI),
	)
}

func (s *ActionService) accept(ctx context.Context, kind domain.ActionKind, chainID, questionID string, attrs ...slog.Attr) (domain.ActionReceipt, error) {
	qid, err := chain.NormalizeQuestionID(questionID)
	if err != nil {
		return domain.ActionReceipt{}, fmt.Errorf("action_service: %s: %w", kind, err)
	}
	w := s.wallet.Wallet()
	if !w.Connected {
		return domain.ActionReceipt{}, fmt.Errorf("action_service: %s: %w", kind, domain.ErrWalletDisconnected)
	}

	receipt := domain.ActionReceipt{
		ID:         uuid.NewString(),
		Kind:       kind,
		ChainID:    chainID,
		QuestionID: qid.Hex(),
		From:       w.Address,
		Submitted:  false,
		Message:    notSubmitted,
		CreatedAt:  s.now().UTC(),
	}

	args := []any{
		slog.String("receipt_id", receipt.ID),
		slog.String("kind", string(kind)),
		slog.String("chain", chainID),
		slog.String("question_id", receipt.QuestionID),
		slog.String("from", w.Address),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.InfoContext(ctx, "action_service: action accepted", args...)

	return receipt, nil
}
