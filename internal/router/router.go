// Package router wires the middleware chain and routes together,
// following the teacher's router.NewRouter layout.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/config"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/detect"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/handler"
	appmw "github.com/wlo-labs/dupcheck/services/dupcheck/internal/middleware"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/ratelimit"
)

// New returns a configured chi Router with the full middleware chain and
// every route from §6 mounted. A /detect/hash request passes rate-limit →
// validate → cache-lookup → handle → cache-store: the rate limiter is
// middleware and runs first, while validation and cache-lookup/store
// happen inside the detect handler itself, since they depend on the
// parsed body. An invalid request therefore still consumes a rate-limit
// token.
func New(cfg *config.Config, logger zerolog.Logger, pipeline *detect.Pipeline, respCache *cache.Cache, limiter *ratelimit.Limiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(appmw.RequestLogger(logger))
	r.Use(appmw.RequestDeadline(cfg.RequestDeadline, logger))

	r.Get("/health", handler.Health)
	r.Get("/openapi.json", handler.OpenAPIHandler())
	r.Get("/docs", handler.SwaggerUIHandler())

	detectHandler := handler.NewDetectHandler(pipeline, respCache, cfg.MaxCandidates, logger)
	r.Route("/detect/hash", func(r chi.Router) {
		r.Use(appmw.RateLimit(limiter, logger))
		r.Post("/by-node", detectHandler.ByNode)
		r.Post("/by-metadata", detectHandler.ByMetadata)
	})

	adminHandler := handler.NewAdminHandler(respCache)
	r.Route("/admin", func(r chi.Router) {
		r.Use(appmw.AdminAuth(cfg.AdminAPIKey, logger))
		r.Post("/cache/clear", adminHandler.ClearCache)
	})

	return r
}
