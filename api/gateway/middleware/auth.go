// Package middleware provides HTTP middleware for the field allocation
// optimizer's API gateway: JWT-gated write routes, request logging, and
// the Prometheus request-duration/count wrapper used by cmd/optimizer.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5" // v5.2.1
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldplan/allocator/internal/apperr"
	"github.com/fieldplan/allocator/pkg/types"
)

const (
	authHeaderKey   = "Authorization"
	bearerPrefix    = "Bearer "
	maxTokenLength  = 1000
	claimsContextKey contextKey = "claims"
)

type contextKey string

var (
	authRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "allocator",
			Subsystem: "api_gateway",
			Name:      "auth_requests_total",
			Help:      "Total authentication attempts by outcome",
		},
		[]string{"outcome"},
	)
	authLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "allocator",
			Subsystem: "api_gateway",
			Name:      "auth_latency_seconds",
			Help:      "JWT validation latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1},
		},
	)
)

func init() {
	prometheus.MustRegister(authRequests, authLatency)
}

// Claims is the JWT payload accepted on write routes.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// RequireAuth validates a bearer JWT HMAC-signed with secret, rejecting
// the request with 401 on any failure. cfg is not consulted.
func RequireAuth(cfg *types.ServiceConfig, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			defer func() { authLatency.Observe(time.Since(start).Seconds()) }()

			token, err := extractToken(r)
			if err != nil {
				authRequests.WithLabelValues("missing_token").Inc()
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, apperr.New(apperr.ErrCodeUnauthorized, "unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || !parsed.Valid {
				authRequests.WithLabelValues("invalid_token").Inc()
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			authRequests.WithLabelValues("success").Inc()
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get(authHeaderKey)
	if header == "" {
		return "", apperr.New(apperr.ErrCodeUnauthorized, "missing Authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", apperr.New(apperr.ErrCodeUnauthorized, "Authorization header must use the Bearer scheme")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" || len(token) > maxTokenLength {
		return "", apperr.New(apperr.ErrCodeUnauthorized, "invalid token length")
	}
	for _, c := range token {
		if !unicode.IsPrint(c) {
			return "", apperr.New(apperr.ErrCodeUnauthorized, "invalid token characters")
		}
	}
	return token, nil
}

// ClaimsFromContext retrieves the validated claims RequireAuth stored on
// the request context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
