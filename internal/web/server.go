package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/web/middleware"
)

// requestTimeout bounds every API request including storage calls
const requestTimeout = 30 * time.Second

// Dependencies are the collaborators the server is built from
type Dependencies struct {
	Store    database.Store
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics; nil disables the endpoint
	Logger   *slog.Logger
}

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	scanner    *access.Scanner
	registry   *access.Registry
	tokens     middleware.TokenValidator
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// NewServer creates a new web server listening on host:port
func NewServer(cfg *config.Config, host string, port int, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		router:   r,
		scanner:  access.NewScanner(deps.Store, facematch.NewMatcher(cfg.Match.Threshold), deps.Metrics, logger),
		registry: access.NewRegistry(deps.Store, deps.Metrics, logger),
		gatherer: deps.Gatherer,
		logger:   logger,
	}
	if cfg.Admin.AuthEnabled() {
		s.tokens = auth.NewTokenService(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer)
	} else {
		logger.Warn("ADMIN_JWT_SECRET is empty, admin endpoints are unauthenticated")
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
