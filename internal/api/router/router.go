package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agendia/booking-ai-platform/internal/assistant"
	httpmiddleware "github.com/agendia/booking-ai-platform/internal/http/middleware"
	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger           *logging.Logger
	AssistantHandler *assistant.Handler
	MetricsHandler   http.Handler
	AdminAuthSecret  string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhook ingress, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.AssistantHandler.Health)
		public.Route("/assistant", func(r chi.Router) {
			r.Post("/message", cfg.AssistantHandler.Message)
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sessions/{sessionID}", cfg.AssistantHandler.Session)
		})
	}

	return r
}
