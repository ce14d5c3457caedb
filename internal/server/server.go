// Package server exposes the agents over HTTP: per-agent mounts with
// discovery cards and a messages endpoint, a WebSocket chat channel,
// health and Prometheus endpoints. The lending mount sits behind the
// x-payment paywall.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/engine"
	"github.com/movementfi/moveyield/internal/agent"
)

// Config configures a Server.
type Config struct {
	// Engine runs the agents. Required.
	Engine *engine.Engine

	// Addr is the listen address, e.g. ":8080".
	Addr string

	// BaseURL is the externally visible URL used in agent cards.
	// Empty falls back to http://localhost + Addr.
	BaseURL string

	// ServiceName and Version are reported by /health.
	ServiceName string
	Version     string

	// RequirePayment gates the lending mount behind the x-payment
	// header.
	RequirePayment bool

	// AllowedOrigin is the CORS origin. Empty allows any origin.
	AllowedOrigin string

	// Model and MaxTokens override the engine defaults for both
	// agents when set.
	Model     string
	MaxTokens int64

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Server serves the lending and balance agents.
type Server struct {
	engine  *engine.Engine
	logger  *slog.Logger
	cfg     Config
	lending core.Agent
	balance core.Agent
	pending *pendingStore
	router  chi.Router
}

// New builds a Server and its routes.
func New(cfg Config) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "moveyield-api"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.Addr
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		engine:  cfg.Engine,
		logger:  cfg.Logger,
		cfg:     cfg,
		lending: agent.Lending{Model: cfg.Model, MaxTokens: cfg.MaxTokens},
		balance: agent.Balance{Model: cfg.Model, MaxTokens: cfg.MaxTokens},
		pending: newPendingStore(),
	}
	s.router = s.routes()
	return s
}

// agentFor maps a client-supplied agent label to an agent. Unknown
// labels fall back to the lending agent.
func (s *Server) agentFor(label string) core.Agent {
	switch label {
	case "balance", "balance_agent":
		return s.balance
	default:
		return s.lending
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware())
	r.Use(cors(s.cfg.AllowedOrigin))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	r.Route("/agents/lending", func(r chi.Router) {
		if s.cfg.RequirePayment {
			r.Use(RequirePayment)
		}
		card := agent.LendingCard(s.cfg.BaseURL + "/agents/lending")
		r.Get("/.well-known/agent-card.json", cardHandler(card))
		r.Post("/messages", s.handleMessages(s.lending))
	})
	r.Route("/agents/balance", func(r chi.Router) {
		card := agent.BalanceCard(s.cfg.BaseURL + "/agents/balance")
		r.Get("/.well-known/agent-card.json", cardHandler(card))
		r.Post("/messages", s.handleMessages(s.balance))
	})

	return r
}

// Router returns the assembled handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.pending.sweepLoop(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr, "payment_required", s.cfg.RequirePayment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.cfg.ServiceName,
		"version": s.cfg.Version,
	})
}

// cardHandler serves a static discovery card.
func cardHandler(card *agent.Card) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, card)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
