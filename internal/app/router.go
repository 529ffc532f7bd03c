// Package app wires application components and startup helpers.
//
// It provides dependency injection and application initialization.
// The package coordinates between different layers and provides
// a clean application bootstrap process.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/cxyfer/oj-catalog/internal/adapter/httpserver"
	"github.com/cxyfer/oj-catalog/internal/config"
	"github.com/cxyfer/oj-catalog/internal/observability"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input allows any origin.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middleware and routes:
// public similarity/daily/problems endpoints and, when admin credentials are
// configured, the crawler/embedding/problem-CRUD/token admin surface.
func BuildRouter(cfg config.EnvConfig, corsOrigins string, rateLimitPerMin int, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(corsOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", srv.HealthzHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(pub chi.Router) {
		pub.Use(srv.BearerAuth)
		pub.Get("/problems/{source}", srv.ListProblemsHandler)
		pub.Get("/problems/{source}/tags", srv.ListTagsHandler)
		pub.Get("/problems/{source}/{id}", srv.GetProblemHandler)
		pub.Get("/daily", srv.DailyHandler)

		pub.Group(func(sim chi.Router) {
			sim.Use(httprate.LimitByIP(rateLimitPerMin, time.Minute))
			sim.Get("/similar", srv.SimilarByTextHandler)
		})
		pub.Get("/similar/{source}/{id}", srv.SimilarByProblemHandler)
	})

	if cfg.AdminEnabled() {
		admin := httpserver.NewAdminServer(cfg, srv)
		r.Post("/admin/login", admin.LoginHandler)

		r.Route("/admin/api", func(ar chi.Router) {
			ar.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					admin.AdminBearerRequired(next.ServeHTTP)(w, r)
				})
			})

			ar.Post("/crawlers/trigger", admin.CrawlerTriggerHandler)
			ar.Get("/crawlers/status", admin.CrawlerStatusHandler)
			ar.Post("/crawlers/cancel", admin.CrawlerCancelHandler)
			ar.Get("/crawlers/{job_id}/output", admin.CrawlerOutputHandler)

			ar.Post("/embeddings/trigger", admin.EmbeddingTriggerHandler)
			ar.Get("/embeddings/status", admin.EmbeddingStatusHandler)
			ar.Post("/embeddings/cancel", admin.EmbeddingCancelHandler)
			ar.Get("/embeddings/{job_id}/output", admin.EmbeddingOutputHandler)
			ar.Get("/embeddings/{job_id}/progress", admin.EmbeddingProgressHandler)

			ar.Post("/problems/{source}", admin.CreateProblemHandler)
			ar.Put("/problems/{source}/{id}", admin.UpdateProblemHandler)
			ar.Delete("/problems/{source}/{id}", admin.DeleteProblemHandler)
			ar.Get("/stats", admin.PlatformStatsHandler)

			ar.Get("/tokens", admin.ListTokensHandler)
			ar.Post("/tokens", admin.CreateTokenHandler)
			ar.Delete("/tokens/{token}", admin.RevokeTokenHandler)

			ar.Get("/settings/token-auth", admin.GetTokenAuthSettingHandler)
			ar.Put("/settings/token-auth", admin.SetTokenAuthSettingHandler)
		})
	}

	return httpserver.SecurityHeaders(r)
}
