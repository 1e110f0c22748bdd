package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/backend"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/coach"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm/configbuilder"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/observability"
	coachrpc "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc/coach"
)

// Server hosts coach sessions plus health and metrics endpoints.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	strategy *backend.StrategyEngine
}

// NewServer constructs a daemon instance.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  observability.NewMetrics(),
		strategy: backend.NewStrategyEngine(registry, cfg.Strategy),
	}, nil
}

// NewCoach wires a coach and its generation backend onto a session host.
func (s *Server) NewCoach(h host.Host, logger *zap.Logger) *coach.Coach {
	if logger == nil {
		logger = s.logger
	}
	b := &backend.LLM{
		Strategy: s.strategy,
		Surface:  h,
		Metrics:  s.metrics,
		Logger:   logger.Named("backend"),
	}
	return coach.New(h, b, s.cfg.Coach,
		coach.WithLogger(logger.Named("coach")),
		coach.WithMetrics(s.metrics),
	)
}

// Handler returns the daemon's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle(coachrpc.ExplainPath, coachrpc.NewHandler(s.NewCoach, s.metrics, s.logger))

	if s.transport() == "ndjson" {
		return mux
	}
	path, handler := coachrpc.NewConnectHandler(s.NewCoach, s.metrics, s.logger)
	mux.Handle(path, handler)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting errcoach daemon",
			zap.String("addr", s.cfg.Server.Addr),
			zap.String("transport", s.transport()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down errcoach daemon")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) transport() string {
	return strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
