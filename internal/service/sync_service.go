package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// syncTimeout bounds one status check per chain.
const syncTimeout = 5 * time.Second

// BlockIndexer reports the latest block a subgraph has indexed.
type BlockIndexer interface {
	FetchLatestBlock(ctx context.Context) (int64, error)
}

// HeadReader reports the head block of the chain behind an RPC endpoint.
type HeadReader interface {
	LatestBlock(ctx context.Context, rpcURL string) (uint64, error)
}

// SyncSource pairs a chain with its subgraph.
type SyncSource struct {
	Chain   domain.Chain
	Indexer BlockIndexer
}

// SyncService reports how far each chain's subgraph trails the chain head.
type SyncService struct {
	sources []SyncSource
	heads   HeadReader
	logger  *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(sources []SyncSource, heads HeadReader, logger *slog.Logger) *SyncService {
	return &SyncService{sources: sources, heads: heads, logger: logger}
}

// Status checks every chain concurrently. Failures are reported per chain
// and never fail the whole call.
func (s *SyncService) Status(ctx context.Context) []domain.IndexerStatus {
	out := make([]domain.IndexerStatus, len(s.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			out[i] = s.check(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *SyncService) check(ctx context.Context, src SyncSource) domain.IndexerStatus {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	st := domain.IndexerStatus{ChainID: src.Chain.ID}

	indexed, err := src.Indexer.FetchLatestBlock(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "indexer block unavailable",
			slog.String("chain", src.Chain.ID),
			slog.String("error", err.Error()),
		)
		st.Error = "indexer unreachable"
		return st
	}
	st.IndexedBlock = indexed

	head, err := s.heads.LatestBlock(ctx, src.Chain.RPCURL)
	if err != nil {
		s.logger.WarnContext(ctx, "chain head unavailable",
			slog.String("chain", src.Chain.ID),
			slog.String("error", err.Error()),
		)
		st.Error = "rpc unreachable"
		return st
	}
	st.HeadBlock = int64(head)
	st.Lag = max(st.HeadBlock-st.IndexedBlock, 0)
	return st
}
