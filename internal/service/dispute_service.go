package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/format"
	"github.com/alanyoungcy/oracleview/internal/platform/kleros"
)

// DisputeResolver maps a question ID to the court dispute raised for it.
type DisputeResolver interface {
	DisputeID(ctx context.Context, foreignProxy, questionID, rpcURL string) (*big.Int, error)
	DisputeIDNative(ctx context.Context, homeProxy, questionID, rpcURL string) (*big.Int, error)
}

// CourtReader reads disputes from the court subgraph.
type CourtReader interface {
	FetchDispute(ctx context.Context, disputeID string) (domain.Dispute, error)
}

// EvidenceReader fetches meta-evidence and evidence documents.
type EvidenceReader interface {
	FetchMetaEvidenceURI(ctx context.Context, chainID int64, disputeID string) (string, error)
	FetchMetaEvidence(ctx context.Context, uri string) (domain.MetaEvidence, error)
	FetchEvidenceContents(ctx context.Context, uri string) (domain.EvidenceContents, error)
	EvidenceDisplayURL(meta domain.MetaEvidence, p kleros.DisplayParams) string
	PolicyURL(fileURI string) string
}

// CourtConfig describes the court chain and its arbitrator.
type CourtConfig struct {
	ChainID           int64
	RPCURL            string
	ArbitratorAddress string
	Name              string
	Description       string
	PolicyURI         string
	// EvidenceWorkers bounds concurrent evidence downloads.
	EvidenceWorkers int
}

// DisputeService assembles the dispute view of a question.
type DisputeService struct {
	chains   []domain.Chain
	bridges  []domain.Bridge
	resolver DisputeResolver
	court    CourtReader
	evidence EvidenceReader
	cfg      CourtConfig
	now      func() time.Time
	logger   *slog.Logger
}

// NewDisputeService creates a DisputeService.
func NewDisputeService(
	chains []domain.Chain,
	bridges []domain.Bridge,
	resolver DisputeResolver,
	court CourtReader,
	evidence EvidenceReader,
	cfg CourtConfig,
	logger *slog.Logger,
) *DisputeService {
	if cfg.EvidenceWorkers <= 0 {
		cfg.EvidenceWorkers = 4
	}
	return &DisputeService{
		chains:   chains,
		bridges:  bridges,
		resolver: resolver,
		court:    court,
		evidence: evidence,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// Court returns the static description of the court.
func (s *DisputeService) Court() domain.Court {
	return domain.Court{
		Name:        s.cfg.Name,
		Description: strings.ReplaceAll(s.cfg.Description, "**", ""),
		PolicyURI:   s.cfg.PolicyURI,
		PolicyURL:   s.evidence.PolicyURL(s.cfg.PolicyURI),
	}
}

// BridgeFor returns the bridge whose home proxy arbitrates questions of
// arbitrator on chainID.
func (s *DisputeService) BridgeFor(chainID, arbitrator string) (domain.Bridge, error) {
	want := strings.ToLower(strings.TrimSpace(arbitrator))
	for _, b := range s.bridges {
		if b.HomeChain == chainID && b.HomeAddress() == want {
			return b, nil
		}
	}
	return domain.Bridge{}, fmt.Errorf("dispute_service: arbitrator %s on %s: %w", arbitrator, chainID, domain.ErrNoBridge)
}

// ResolveDisputeID finds the dispute ID of q through its bridge: on the
// foreign chain when the bridge has a foreign proxy, on the home chain
// otherwise.
func (s *DisputeService) ResolveDisputeID(ctx context.Context, chainID string, q domain.Question) (*big.Int, error) {
	bridge, err := s.BridgeFor(chainID, q.Arbitrator)
	if err != nil {
		return nil, err
	}

	if bridge.Native() {
		home, ok := s.chainBySlug(bridge.HomeChain)
		if !ok {
			return nil, fmt.Errorf("dispute_service: home chain %q: %w", bridge.HomeChain, domain.ErrUnknownChain)
		}
		id, err := s.resolver.DisputeIDNative(ctx, bridge.HomeAddress(), q.ID, home.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dispute_service: resolve native: %w", err)
		}
		return id, nil
	}

	foreign, ok := s.chainBySlug(bridge.ForeignChain)
	if !ok {
		return nil, fmt.Errorf("dispute_service: foreign chain %q: %w", bridge.ForeignChain, domain.ErrUnknownChain)
	}
	id, err := s.resolver.DisputeID(ctx, bridge.ForeignProxy, q.ID, foreign.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dispute_service: resolve foreign: %w", err)
	}
	return id, nil
}

// ForQuestion resolves and loads the dispute raised for q. A dispute ID the
// court subgraph does not know yet yields a view with only the ID set.
// Meta-evidence and evidence documents that fail to load are left empty.
func (s *DisputeService) ForQuestion(ctx context.Context, chainID string, q domain.Question) (domain.DisputeView, error) {
	id, err := s.ResolveDisputeID(ctx, chainID, q)
	if err != nil {
		return domain.DisputeView{}, err
	}
	view := domain.DisputeView{DisputeID: id.String()}

	dispute, err := s.court.FetchDispute(ctx, view.DisputeID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.InfoContext(ctx, "dispute_service: dispute not indexed yet",
			slog.String("dispute_id", view.DisputeID),
		)
		return view, nil
	}
	if err != nil {
		return domain.DisputeView{}, fmt.Errorf("dispute_service: fetch dispute %s: %w", view.DisputeID, err)
	}

	var meta *domain.MetaEvidence
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.EvidenceWorkers)

	g.Go(func() error {
		meta = s.loadMetaEvidence(ctx, view.DisputeID)
		return nil
	})

	items := dispute.EvidenceGroup.Evidence
	for i := range items {
		g.Go(func() error {
			contents, err := s.evidence.FetchEvidenceContents(ctx, items[i].URI)
			if err != nil {
				s.logger.WarnContext(ctx, "dispute_service: evidence fetch failed",
					slog.String("dispute_id", view.DisputeID),
					slog.String("uri", items[i].URI),
					slog.String("error", err.Error()),
				)
				return nil
			}
			items[i].Contents = &contents
			return nil
		})
	}
	_ = g.Wait()

	view.Dispute = &dispute
	view.Status = dispute.Status()
	view.MetaEvidence = meta
	view.ArbitrableContractAddress = dispute.Arbitrated
	view.Rows = s.rows(dispute, meta)

	if meta != nil {
		view.PolicyURL = s.evidence.PolicyURL(meta.FileURI)
		view.EvidenceDisplayURL = s.evidence.EvidenceDisplayURL(*meta, kleros.DisplayParams{
			DisputeID:                 view.DisputeID,
			ArbitrableChainID:         meta.ArbitrableChainID,
			ArbitrableJSONRPCURL:      s.rpcForChainID(meta.ArbitrableChainID),
			ArbitrableContractAddress: dispute.Arbitrated,
			ArbitratorContractAddress: s.cfg.ArbitratorAddress,
			ArbitratorJSONRPCURL:      s.cfg.RPCURL,
			ArbitratorChainID:         s.cfg.ChainID,
		})
	}

	s.logger.DebugContext(ctx, "dispute_service: loaded dispute",
		slog.String("question_id", q.ID),
		slog.String("dispute_id", view.DisputeID),
		slog.Int("evidence", len(items)),
	)
	return view, nil
}

func (s *DisputeService) loadMetaEvidence(ctx context.Context, disputeID string) *domain.MetaEvidence {
	uri, err := s.evidence.FetchMetaEvidenceURI(ctx, s.cfg.ChainID, disputeID)
	if err != nil {
		s.logger.WarnContext(ctx, "dispute_service: meta-evidence uri lookup failed",
			slog.String("dispute_id", disputeID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	meta, err := s.evidence.FetchMetaEvidence(ctx, uri)
	if err != nil {
		s.logger.WarnContext(ctx, "dispute_service: meta-evidence fetch failed",
			slog.String("dispute_id", disputeID),
			slog.String("uri", uri),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return &meta
}

// rows builds the dispute summary table. Rows without a value are dropped.
func (s *DisputeService) rows(d domain.Dispute, meta *domain.MetaEvidence) []domain.DisputeRow {
	now := s.now()

	var deadline, lastChange string
	if d.PeriodDeadline != 0 {
		deadline = format.Relative(time.Unix(d.PeriodDeadline, 0), now, true)
	}
	if d.LastPeriodChange != 0 {
		lastChange = format.Relative(time.Unix(d.LastPeriodChange, 0), now, false)
	}

	status, ruling := "Pending", "Not yet ruled"
	if d.Ruled {
		var opts *domain.RulingOptions
		if meta != nil {
			opts = meta.RulingOptions
		}
		status, ruling = "Ruled", domain.RulingText(d.Ruling, opts)
	}

	all := []domain.DisputeRow{
		{Label: "Period", Value: domain.PeriodName(d.Period)},
		{Label: "Deadline", Value: deadline},
		{Label: "Rounds", Value: d.NbRounds},
		{Label: "Choices", Value: d.NbChoices},
		{Label: "Current Round Jurors", Value: d.CurrentRoundJurors()},
		{Label: "Last Period Change", Value: lastChange},
		{Label: "Status", Value: status},
		{Label: "Ruling", Value: ruling},
	}
	out := all[:0]
	for _, r := range all {
		if r.Value != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *DisputeService) chainBySlug(id string) (domain.Chain, bool) {
	for _, c := range s.chains {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Chain{}, false
}

// rpcForChainID returns the RPC endpoint of the chain with the given numeric
// ID, falling back to the court chain's endpoint.
func (s *DisputeService) rpcForChainID(id string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err == nil {
		for _, c := range s.chains {
			if c.ChainID == n {
				return c.RPCURL
			}
		}
	}
	return s.cfg.RPCURL
}
