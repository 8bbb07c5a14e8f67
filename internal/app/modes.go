package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/oracleview/internal/pipeline"
	"github.com/alanyoungcy/oracleview/internal/server"
	"github.com/alanyoungcy/oracleview/internal/server/handler"
	"github.com/alanyoungcy/oracleview/internal/server/ws"
)

// ServerMode serves the API, the pages and the WebSocket feed. The feed only
// carries data when a watcher runs somewhere against the same Redis.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, false)
	return ignoreCanceled(g.Wait())
}

// WatcherMode polls the indexers, publishes snapshots and sends alerts. No
// HTTP server is started.
func (a *App) WatcherMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watcher mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startWatcher(ctx, g, deps)
	return ignoreCanceled(g.Wait())
}

// FullMode runs the watcher and, when enabled, the HTTP server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	watching := a.cfg.Watcher.Enabled
	if watching {
		a.startWatcher(ctx, g, deps)
	} else {
		a.logger.WarnContext(ctx, "watcher.enabled is false, live feed and alerts are off")
	}
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, watching)
	}

	return ignoreCanceled(g.Wait())
}

// startWatcher adds the question watcher loop to g. The lock TTL equals the
// interval so a crashed replica blocks the others for one pass at most.
func (a *App) startWatcher(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	interval := a.cfg.Watcher.Interval.Duration
	watcher := pipeline.NewQuestionWatcher(deps.Questions, deps.SignalBus, deps.Notifier, a.logger).
		WithLock(deps.LockManager, interval)

	g.Go(func() error {
		return watcher.Run(ctx, interval)
	})
}

// startHTTPServer adds an HTTP server goroutine to the given errgroup. It
// registers the WebSocket hub plus every REST and page handler. The server is
// shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, watching bool) {
	startedAt := time.Now().UTC()

	chains := deps.Questions.Chains()
	chainIDs := make([]string, 0, len(chains))
	channels := make([]string, 0, len(chains))
	for _, c := range chains {
		chainIDs = append(chainIDs, c.ID)
		channels = append(channels, pipeline.SnapshotChannel(c.ID))
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:           a.cfg.Mode,
		Channels:       channels,
		Chains:         chainIDs,
		AllowedOrigins: a.cfg.Server.CORSOrigins,
		StartedAt:      startedAt,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:      handler.NewHealthHandler(deps.Redis, a.logger),
		Status:      handler.NewStatusHandler(a.cfg.Mode, startedAt, chainIDs, watching, deps.Sync),
		Questions:   handler.NewQuestionHandler(deps.Questions, a.logger),
		Transitions: handler.NewTransitionHandler(deps.Questions, pipeline.NewTransitionLog(deps.SignalBus, a.logger), a.logger),
		Disputes:    handler.NewDisputeHandler(deps.Questions, deps.Disputes, a.logger),
		Actions:     handler.NewActionHandler(deps.Actions, deps.Wallet, a.logger),
		Pages:       handler.NewPageHandler(deps.Questions, deps.Disputes, deps.Wallet, a.logger),
	}, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// ignoreCanceled treats shutdown by signal as a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
