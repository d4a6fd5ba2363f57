// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/infrastructure/config"
	"github.com/alchemorsel/mealswap/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/mealswap/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/pkg/healthcheck"
)

// MetricsProvider records HTTP metrics and exposes the scrape handler
type MetricsProvider interface {
	middleware.MetricsRecorder
	Handler() http.Handler
}

// APIServer represents the JSON API HTTP server
type APIServer struct {
	config         *config.Config
	logger         *zap.Logger
	server         *http.Server
	router         *chi.Mux
	handlers       *handlers.APIHandlers
	metrics        MetricsProvider
	limiter        *middleware.ClientLimiter
	openAPIHandler *OpenAPIHandler
	health         *healthcheck.HealthCheck
	done           chan struct{}
	stopOnce       sync.Once
}

// NewAPIServer creates a new API server instance. metrics and health may be
// nil; without health checks /health only reports that the process is up.
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	swapService inbound.SwapService,
	catalogService inbound.CatalogService,
	metrics MetricsProvider,
	health *healthcheck.HealthCheck,
) *APIServer {
	s := &APIServer{
		config:         cfg,
		logger:         log.Named("api-server"),
		handlers:       handlers.NewAPIHandlers(swapService, catalogService, cfg.App.Version, log),
		metrics:        metrics,
		openAPIHandler: NewOpenAPIHandler(log),
		health:         health,
		done:           make(chan struct{}),
	}
	if cfg.Server.RateLimitRPS > 0 {
		s.limiter = middleware.NewClientLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 10*time.Minute)
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures the API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}

	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	} else {
		r.Get("/health", s.handlers.HealthCheck)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.requestTimeout()))
		if s.limiter != nil {
			r.Use(middleware.RateLimit(s.limiter))
		}
		r.Use(middleware.JSONOnly())

		r.Get("/openapi.yaml", s.openAPIHandler.ServeOpenAPISpec)
		r.Get("/openapi.json", s.openAPIHandler.ServeOpenAPIJSON)

		r.Route("/foods", func(r chi.Router) {
			r.Get("/", s.handlers.ListFoods)
			r.Post("/", s.handlers.ImportFoods)
			r.Get("/{id}", s.handlers.GetFood)
		})

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", s.handlers.CreateMeal)
			r.Get("/{id}", s.handlers.GetMeal)
			r.Get("/{id}/analysis", s.handlers.AnalyzeMeal)
			r.Post("/{id}/swaps", s.handlers.SuggestSwaps)
			r.Post("/{id}/swaps/apply", s.handlers.ApplySwap)
		})
	})

	return r
}

func (s *APIServer) requestTimeout() time.Duration {
	if s.config.Server.WriteTimeout > 0 {
		return s.config.Server.WriteTimeout
	}
	return 30 * time.Second
}

// Handler returns the root HTTP handler
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops
func (s *APIServer) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	if s.limiter != nil {
		go s.sweepLimiter()
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	s.stopOnce.Do(func() { close(s.done) })
	return s.server.Shutdown(ctx)
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

func (s *APIServer) sweepLimiter() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed := s.limiter.Cleanup(); removed > 0 {
				s.logger.Debug("Dropped idle rate limit buckets", zap.Int("removed", removed))
			}
		}
	}
}
