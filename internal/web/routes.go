package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/facegate/internal/web/handlers"
	"github.com/kozaktomas/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	scanHandler := handlers.NewScanHandler(s.scanner, s.logger)
	identitiesHandler := handlers.NewIdentitiesHandler(s.registry, s.config.Match.LookalikeMaxDistance, s.logger)
	eventsHandler := handlers.NewEventsHandler(s.registry, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	// Probes (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Door readers are unauthenticated kiosks
		r.Post("/scan", scanHandler.Scan)

		// Everything else is the admin console
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.tokens, s.logger))

			// Identities
			r.Get("/identities", identitiesHandler.List)
			r.Post("/identities", identitiesHandler.Create)
			r.Post("/identities/nearest", identitiesHandler.Nearest)
			r.Get("/identities/lookalikes", identitiesHandler.Lookalikes)
			r.Get("/identities/{id}", identitiesHandler.Get)
			r.Put("/identities/{id}", identitiesHandler.Update)
			r.Delete("/identities/{id}", identitiesHandler.Delete)

			// Audit log
			r.Get("/events", eventsHandler.List)
			r.Get("/events/stats", eventsHandler.Stats)

			// Encodings
			r.Post("/encodings/validate", handlers.ValidateEncoding)

			// Config
			r.Get("/config", configHandler.Get)
		})
	})
}
