// Package api provides HTTP router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/trustlens/trustlens/internal/config"
	"github.com/trustlens/trustlens/internal/database"
	"github.com/trustlens/trustlens/internal/score"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, engine *score.Engine, batch *score.BatchProcessor, store database.Store) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(engine, batch, store)

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", handler.HealthCheck)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(store))
			r.Use(AuditMiddleware(store))
			r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

			// Scoring endpoints
			r.Post("/score", handler.ScoreProduct)
			r.Post("/score/batch", handler.ScoreBatch)

			// Results
			r.Get("/results", handler.ListResults)
			r.Get("/results/{id}", handler.GetResult)

			// Audit logs
			r.Get("/audit", handler.GetAuditLogs)
		})

		// Admin routes (API key management)
		// In production, these should be protected differently
		r.Route("/admin", func(r chi.Router) {
			r.Post("/keys", handler.CreateAPIKey)
			r.Get("/keys", handler.ListAPIKeys)
			r.Delete("/keys/{id}", handler.DeleteAPIKey)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>TrustLens - Listing Trust Scores</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #2563eb; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; }
        .endpoint { margin: 10px 0; }
    </style>
</head>
<body>
    <h1>TrustLens API</h1>
    <p>Trust-scoring API is running. Use the API endpoints below:</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>GET /api/v1/health</code> - Health check</div>
    <div class="endpoint"><code>POST /api/v1/score</code> - Score one product listing</div>
    <div class="endpoint"><code>POST /api/v1/score/batch</code> - Score a batch of listings, optionally ranked</div>
    <div class="endpoint"><code>GET /api/v1/results</code> - List score results</div>
    <div class="endpoint"><code>GET /api/v1/results/{id}</code> - Get specific result</div>

    <h2>Authentication</h2>
    <p>Use <code>Authorization: Bearer your-api-key</code> header for all requests except health check.</p>

    <h2>Create API Key</h2>
    <p><code>POST /api/v1/admin/keys</code> with body <code>{"name": "my-key"}</code></p>
</body>
</html>`))
	})

	return r
}
