// Package routes implements the HTTP handlers the field allocation
// optimizer's gateway exposes: the optimize/adjust pipeline entry points
// and the operational health endpoints.
package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldplan/allocator/internal/cache"
)

var startTime = time.Now()

// RegisterHealthRoutes registers the liveness endpoint and, when redis is
// non-nil, a readiness endpoint that also checks the cache connection.
func RegisterHealthRoutes(r chi.Router, redis *cache.RedisClient) {
	r.Get("/health", handleHealth)
	if redis != nil {
		r.Get("/health/ready", handleReady(redis))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
	})
}

func handleReady(redis *cache.RedisClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := redis.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"redis":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
