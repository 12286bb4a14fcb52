// Package gateway wires the field allocation optimizer's HTTP surface:
// the optimize/adjust pipeline entry points plus health and metrics
// endpoints, behind the same middleware chain cmd/calculator used for
// the garden space calculator.
package gateway

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	gwmiddleware "github.com/fieldplan/allocator/api/gateway/middleware"
	"github.com/fieldplan/allocator/api/gateway/routes"
	"github.com/fieldplan/allocator/internal/cache"
	"github.com/fieldplan/allocator/internal/candidate"
	"github.com/fieldplan/allocator/internal/profile"
	"github.com/fieldplan/allocator/internal/store"
	"github.com/fieldplan/allocator/internal/weather"
	"github.com/fieldplan/allocator/pkg/types"
)

// NewRouter builds the gateway's chi router. jwtSecret gates the
// optimize/adjust write routes; redis may be nil, in which case
// /health/ready is not registered. repo, weatherSrc, profileSrc, and
// phenologyCache may all be nil, in which case optimize/adjust calls fall
// back entirely to their request bodies, phenology memoization stays
// local to each call, and run audit records are not persisted.
func NewRouter(cfg *types.ServiceConfig, log *zap.Logger, redis *cache.RedisClient, repo *store.Repository, weatherSrc weather.Source, profileSrc profile.Source, phenologyCache candidate.PhenologyCache, jwtSecret []byte, registry *prometheus.Registry) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(gwmiddleware.RequestLogger(log))
	router.Use(gwmiddleware.RequestMetrics)

	router.Use(middleware.AllowContentType("application/json"))
	router.Use(middleware.NoCache)
	router.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	router.Use(middleware.SetHeader("X-Frame-Options", "deny"))

	if cfg.API.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.API.AllowedOrigins,
			AllowedMethods:   cfg.API.AllowedMethods,
			AllowedHeaders:   cfg.API.AllowedHeaders,
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Use(httprate.LimitByIP(cfg.API.RateLimit, cfg.API.RateLimitWindow))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.Compress(5))

	routes.RegisterHealthRoutes(router, redis)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	optimizeHandler := routes.NewOptimizeHandler(log, repo, weatherSrc, profileSrc, phenologyCache)
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(gwmiddleware.RequireAuth(cfg, jwtSecret))
			r.Post("/optimize", optimizeHandler.Optimize)
			r.Post("/adjust", optimizeHandler.Adjust)
		})
	})

	return router
}
