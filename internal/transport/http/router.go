package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salespulse/internal/config"
	"salespulse/internal/middleware"
)

// NewRouter assembles the API router: analytics routes, health and
// prometheus metrics, behind the standard middleware chain.
func NewRouter(cfg *config.Config, service AnalyticsServiceInterface, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst))
	}

	analytics := NewAnalyticsHandler(service, logger)
	r.Mount("/api/analytics", analytics.Routes())
	r.Method(http.MethodGet, "/api/health", NewHealthHandler(cfg.Paths.DataDir))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
