package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/server/handler"
	"github.com/alanyoungcy/oracleview/internal/server/middleware"
	"github.com/alanyoungcy/oracleview/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per RateWindow per client; 0 disables
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Status      *handler.StatusHandler
	Questions   *handler.QuestionHandler
	Transitions *handler.TransitionHandler
	Disputes    *handler.DisputeHandler
	Actions     *handler.ActionHandler
	Pages       *handler.PageHandler
}

// Server is the dashboard's HTTP + WebSocket server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (rate limit, auth, CORS, logging) and attaches the
// WebSocket hub when one is given.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "http_server"))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewHandler(cfg, handlers, wsHub, limiter, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed, middleware-wrapped handler. It is split out
// of NewServer so tests can drive it through httptest.
func NewHandler(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- JSON API ---
	api := http.NewServeMux()

	api.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	api.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	api.HandleFunc("GET /api/chains", handlers.Questions.ListChains)
	api.HandleFunc("GET /api/chains/{chain}/questions", handlers.Questions.ListQuestions)
	api.HandleFunc("GET /api/chains/{chain}/questions/{id}", handlers.Questions.GetQuestion)
	api.HandleFunc("GET /api/chains/{chain}/questions/{id}/dispute", handlers.Disputes.GetDispute)
	api.HandleFunc("GET /api/chains/{chain}/transitions", handlers.Transitions.ListTransitions)
	api.HandleFunc("GET /api/court", handlers.Disputes.GetCourt)

	api.HandleFunc("POST /api/chains/{chain}/questions/{id}/answers", handlers.Actions.SubmitAnswer)
	api.HandleFunc("POST /api/chains/{chain}/questions/{id}/votes", handlers.Actions.CastVote)
	api.HandleFunc("POST /api/chains/{chain}/questions/{id}/evidence", handlers.Actions.SubmitEvidence)
	api.HandleFunc("GET /api/wallet", handlers.Actions.GetWallet)

	var apiHandler http.Handler = api
	apiHandler = middleware.Auth(cfg.APIKey)(apiHandler)
	apiHandler = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(apiHandler)
	mux.Handle("/api/", apiHandler)

	// --- WebSocket ---
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// --- HTML pages ---
	if handlers.Pages != nil {
		mux.HandleFunc("GET /{$}", handlers.Pages.Index)
		mux.HandleFunc("GET /chains/{chain}/questions/{id}", handlers.Pages.Question)
	}

	// Build the middleware chain. Logging runs outermost so every response,
	// including CORS preflights and 429s, carries a request ID.
	var h http.Handler = mux
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.Logging(logger)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or encounters a fatal error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
