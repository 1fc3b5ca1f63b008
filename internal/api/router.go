// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/middleware"
	"github.com/tomtom215/trawler/internal/session"
)

// Rate limit tiers. The default tier is configurable; health gets a high
// allowance for orchestrator probes and cancel a low one since a client has
// at most a handful of live sessions.
const (
	defaultRateLimit  = 100
	healthRateLimit   = 1000
	cancelRateLimit   = 30
	rateLimitWindow   = time.Minute
	corsPreflightSecs = 300
)

// NewRouter assembles the HTTP surface: REST endpoints, the WebSocket
// upgrade and optionally /metrics.
func NewRouter(cfg config.Config, handler *Handler, controller *session.Controller) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg))

	// The WebSocket endpoint bypasses rate limiting and the metrics wrapper:
	// the connection is long-lived and hijacked.
	r.Get("/api/ws", controller.HandleWS)

	limit := cfg.Security.RateLimitReqs
	if limit <= 0 {
		limit = defaultRateLimit
	}
	window := cfg.Security.RateLimitWindow
	if window <= 0 {
		window = rateLimitWindow
	}

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter(cfg, limit, window))
		r.Use(middleware.Prometheus)

		r.Get("/api/autocomplete", handler.Autocomplete)
		r.Get("/api/download-file/{name}", handler.DownloadFile)
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter(cfg, cancelRateLimit, window))
		r.Use(middleware.Prometheus)

		r.Post("/api/cancel-crawl", handler.CancelCrawl)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rateLimiter(cfg, healthRateLimit, window))

		r.Get("/", handler.Health)
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
	})

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// corsHandler builds the CORS layer. Development allows any origin;
// production restricts to the configured allow-list.
func corsHandler(cfg config.Config) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if cfg.Server.IsProduction() && len(cfg.Security.AllowedOrigins) > 0 {
		origins = nil
		for _, o := range cfg.Security.AllowedOrigins {
			origins = append(origins, "https://"+o, "http://"+o)
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           corsPreflightSecs,
	})
}

// rateLimiter returns the per-IP limiter, or a no-op when disabled in config
// (local development, load tests).
func rateLimiter(cfg config.Config, limit int, window time.Duration) func(http.Handler) http.Handler {
	if cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(limit, window)
}
