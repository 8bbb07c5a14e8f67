package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/oracleview/internal/chain"
	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/platform/subgraph"
)

// Pagination bounds for Query.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// QuestionFetcher reads questions from one chain's oracle subgraph.
type QuestionFetcher interface {
	FetchQuestions(ctx context.Context, arbitrators []string, createdBefore int64, first int) ([]subgraph.APIQuestion, error)
	FetchQuestion(ctx context.Context, questionID string) (subgraph.APIQuestion, error)
}

// ChainSource pairs a chain with the subgraph client that serves it.
type ChainSource struct {
	Chain     domain.Chain
	Questions QuestionFetcher
}

// QuestionService lists, filters and fetches oracle questions. Every call
// reads the subgraph afresh; nothing is kept between calls.
type QuestionService struct {
	chains  []domain.Chain
	sources map[string]QuestionFetcher
	bridges []domain.Bridge
	now     func() time.Time
	logger  *slog.Logger
}

// NewQuestionService creates a QuestionService over sources. Only bridges
// whose home chain is one of the sources contribute arbitrators.
func NewQuestionService(sources []ChainSource, bridges []domain.Bridge, logger *slog.Logger) *QuestionService {
	s := &QuestionService{
		sources: make(map[string]QuestionFetcher, len(sources)),
		bridges: bridges,
		now:     time.Now,
		logger:  logger,
	}
	for _, src := range sources {
		s.chains = append(s.chains, src.Chain)
		s.sources[src.Chain.ID] = src.Questions
	}
	return s
}

// Chains returns the configured chains in configuration order.
func (s *QuestionService) Chains() []domain.Chain {
	out := make([]domain.Chain, len(s.chains))
	copy(out, s.chains)
	return out
}

// Chain returns the chain with the given slug.
func (s *QuestionService) Chain(id string) (domain.Chain, error) {
	for _, c := range s.chains {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Chain{}, fmt.Errorf("question_service: chain %q: %w", id, domain.ErrUnknownChain)
}

// Arbitrators returns the lower-cased home proxy addresses of every bridge
// homed on chainID.
func (s *QuestionService) Arbitrators(chainID string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, b := range s.bridges {
		if b.HomeChain != chainID {
			continue
		}
		addr := b.HomeAddress()
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

// List pages through every question arbitrated by the chain's bridges,
// newest first. Paging walks createdTimestamp downwards from now and stops
// on a short or empty page. A subgraph error aborts the walk.
func (s *QuestionService) List(ctx context.Context, chainID string) ([]domain.Question, error) {
	fetcher, ok := s.sources[chainID]
	if !ok {
		return nil, fmt.Errorf("question_service: chain %q: %w", chainID, domain.ErrUnknownChain)
	}

	arbitrators := s.Arbitrators(chainID)
	if len(arbitrators) == 0 {
		s.logger.DebugContext(ctx, "question_service: no bridges for chain",
			slog.String("chain", chainID),
		)
		return []domain.Question{}, nil
	}

	now := s.now()
	cursor := now.Unix()
	seen := make(map[string]bool)
	out := make([]domain.Question, 0, subgraph.PageSize)
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("question_service: list %s: %w", chainID, err)
		}

		page, err := fetcher.FetchQuestions(ctx, arbitrators, cursor, subgraph.PageSize)
		if err != nil {
			return nil, fmt.Errorf("question_service: list %s: %w", chainID, err)
		}
		pages++
		if len(page) == 0 {
			break
		}

		for i := range page {
			q := page[i].ToDomainQuestion(chainID, now)
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, q)
		}

		if len(page) < subgraph.PageSize {
			break
		}
		next := int64(page[len(page)-1].CreatedTimestamp)
		if next >= cursor {
			s.logger.WarnContext(ctx, "question_service: cursor did not advance",
				slog.String("chain", chainID),
				slog.Int64("cursor", cursor),
			)
			break
		}
		cursor = next
	}

	s.logger.DebugContext(ctx, "question_service: listed questions",
		slog.String("chain", chainID),
		slog.Int("count", len(out)),
		slog.Int("pages", pages),
	)
	return out, nil
}

// Query lists the chain's questions and applies filter. Counts are taken
// over the full list; Active counts the matching questions that are not
// FINALIZED.
func (s *QuestionService) Query(ctx context.Context, chainID string, filter domain.QuestionFilter) (domain.QuestionPage, error) {
	all, err := s.List(ctx, chainID)
	if err != nil {
		return domain.QuestionPage{}, err
	}
	return Paginate(all, filter), nil
}

// Paginate filters questions by phase and search text and cuts out the
// requested page.
func Paginate(questions []domain.Question, filter domain.QuestionFilter) domain.QuestionPage {
	counts := make(map[domain.Phase]int, len(domain.Phases))
	for _, p := range domain.Phases {
		counts[p] = 0
	}
	for _, q := range questions {
		counts[q.Phase]++
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]domain.Question, 0, len(questions))
	active := 0
	for _, q := range questions {
		if filter.Phase != "" && q.Phase != filter.Phase {
			continue
		}
		if search != "" && !matchesSearch(q, search) {
			continue
		}
		matched = append(matched, q)
		if q.Phase != domain.PhaseFinalized {
			active++
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	pages := (len(matched) + limit - 1) / limit
	page := filter.Page
	if page < 1 {
		page = 1
	}

	// Pages past the end are empty. Checking before multiplying keeps huge
	// page numbers from overflowing.
	start, end := len(matched), len(matched)
	if page <= pages {
		start = (page - 1) * limit
		end = min(start+limit, len(matched))
	}

	return domain.QuestionPage{
		Questions: matched[start:end],
		Total:     len(matched),
		Page:      page,
		Limit:     limit,
		Pages:     pages,
		Counts:    counts,
		Active:    active,
	}
}

func matchesSearch(q domain.Question, needle string) bool {
	return strings.Contains(strings.ToLower(q.Title), needle) ||
		strings.Contains(strings.ToLower(q.Description), needle) ||
		strings.Contains(strings.ToLower(q.ID), needle)
}

// Get fetches a single question by its on-chain ID.
func (s *QuestionService) Get(ctx context.Context, chainID, questionID string) (domain.Question, error) {
	fetcher, ok := s.sources[chainID]
	if !ok {
		return domain.Question{}, fmt.Errorf("question_service: chain %q: %w", chainID, domain.ErrUnknownChain)
	}
	qid, err := chain.NormalizeQuestionID(questionID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: get: %w", err)
	}

	raw, err := fetcher.FetchQuestion(ctx, qid.Hex())
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: get %s: %w", qid.Hex(), err)
	}
	return raw.ToDomainQuestion(chainID, s.now()), nil
}
