package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/isndotbiz/spiritatlas/internal/http/handlers"
	httpmiddleware "github.com/isndotbiz/spiritatlas/internal/http/middleware"
	obsmetrics "github.com/isndotbiz/spiritatlas/internal/observability/metrics"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	EnrichmentHandler   *handlers.EnrichmentHandler
	ConversationHandler *handlers.ConversationHandler
	HealthHandler       *handlers.HealthHandler
	MetricsHandler      http.Handler
	HTTPMetrics         *obsmetrics.HTTPMetrics
	CORSAllowedOrigins  []string
	RateLimitPerMinute  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(httpmiddleware.Metrics(cfg.HTTPMetrics))
	}
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httpmiddleware.RateLimit(float64(cfg.RateLimitPerMinute)/60.0, cfg.RateLimitPerMinute))
	}

	// Public endpoints (health, metrics)
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.EnrichmentHandler != nil {
			v1.Post("/enrichment", cfg.EnrichmentHandler.Generate)
			v1.Route("/insights", func(r chi.Router) {
				r.Post("/daily", cfg.EnrichmentHandler.DailyInsight)
				r.Post("/compatibility", cfg.EnrichmentHandler.Compatibility)
			})
		}
		if cfg.ConversationHandler != nil {
			v1.Route("/conversations", func(r chi.Router) {
				r.Post("/", cfg.ConversationHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.ConversationHandler.Get)
					r.Delete("/", cfg.ConversationHandler.Delete)
					r.Post("/messages", cfg.ConversationHandler.Message)
					r.Post("/summarize", cfg.ConversationHandler.Summarize)
				})
			})
			v1.Get("/profiles/{id}/conversations", cfg.ConversationHandler.ListForProfile)
		}
	})

	return r
}
