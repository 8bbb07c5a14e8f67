package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/oracleview/internal/cache/redis"
	"github.com/alanyoungcy/oracleview/internal/chain"
	"github.com/alanyoungcy/oracleview/internal/config"
	"github.com/alanyoungcy/oracleview/internal/crypto"
	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/notify"
	"github.com/alanyoungcy/oracleview/internal/platform/kleros"
	"github.com/alanyoungcy/oracleview/internal/platform/subgraph"
	"github.com/alanyoungcy/oracleview/internal/service"
)

// Services bundles the read and action services. They talk only to the
// indexers, the content gateway and JSON-RPC endpoints, so they can be built
// without Redis (the CLI does that).
type Services struct {
	Bridges   []domain.Bridge
	Questions *service.QuestionService
	Disputes  *service.DisputeService
	Wallet    *service.WalletService
	Actions   *service.ActionService
	Sync      *service.SyncService
	Resolver  *chain.Resolver
}

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	*Services

	// Redis-backed infrastructure
	Redis       *redis.Client
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Notifications
	Notifier *notify.Notifier
}

// Chains converts the configured chains into domain chains.
func Chains(cfg *config.Config) []domain.Chain {
	out := make([]domain.Chain, 0, len(cfg.Chains))
	for _, c := range cfg.Chains {
		out = append(out, domain.Chain{
			ID:          c.ID,
			Name:        c.Name,
			ChainID:     c.ChainID,
			SubgraphURL: c.SubgraphURL,
			RPCURL:      c.RPCURL,
			Currency:    c.Currency,
		})
	}
	return out
}

// BuildServices constructs the subgraph, gateway and RPC clients and the
// services on top of them.
func BuildServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	bridges, err := config.LoadBridges(cfg.Bridges.Path)
	if err != nil {
		return nil, fmt.Errorf("wire: bridges: %w", err)
	}

	chains := Chains(cfg)
	sources := make([]service.ChainSource, 0, len(chains))
	syncSources := make([]service.SyncSource, 0, len(chains))
	for _, c := range chains {
		client := subgraph.NewClient(c.SubgraphURL, "")
		sources = append(sources, service.ChainSource{Chain: c, Questions: client})
		syncSources = append(syncSources, service.SyncSource{Chain: c, Indexer: client})
	}

	resolver := chain.NewResolver(chain.Options{
		FromBlock:  cfg.Resolver.FromBlock,
		BlockRange: cfg.Resolver.BlockRange,
		Timeout:    cfg.Resolver.Timeout.Duration,
	}, logger)

	courtClient := subgraph.NewClient(cfg.Court.SubgraphURL, "")
	gateway := kleros.NewClient(cfg.Kleros.APIURL, cfg.Kleros.CDNURL, cfg.Kleros.IPFSURL)

	wallet := service.NewWalletService(crypto.KeySource{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	}, cfg.Wallet.DemoAddress, logger.With(slog.String("component", "wallet")))

	return &Services{
		Bridges:   bridges,
		Questions: service.NewQuestionService(sources, bridges, logger.With(slog.String("component", "questions"))),
		Disputes: service.NewDisputeService(chains, bridges, resolver, courtClient, gateway, service.CourtConfig{
			ChainID:           cfg.Court.ChainID,
			RPCURL:            cfg.Court.RPCURL,
			ArbitratorAddress: cfg.Court.ArbitratorAddress,
			Name:              cfg.Court.Name,
			Description:       cfg.Court.Description,
			PolicyURI:         cfg.Court.PolicyURI,
			EvidenceWorkers:   cfg.Kleros.EvidenceWorkers,
		}, logger.With(slog.String("component", "disputes"))),
		Wallet:   wallet,
		Actions:  service.NewActionService(chains, wallet, logger.With(slog.String("component", "actions"))),
		Sync:     service.NewSyncService(syncSources, resolver, logger.With(slog.String("component", "sync"))),
		Resolver: resolver,
	}, nil
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	svcs, err := BuildServices(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	deps := &Dependencies{Services: svcs}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	streamMaxLen := int64(1000)
	if cfg.Redis.StreamMaxLen > 0 {
		streamMaxLen = int64(cfg.Redis.StreamMaxLen)
	}

	deps.Redis = redisClient
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient, streamMaxLen)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
