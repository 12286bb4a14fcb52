package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "allocator",
			Subsystem: "api_gateway",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds by route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "allocator",
			Subsystem: "api_gateway",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(requestDuration, requestsTotal)
}

// recordingWriter captures the status code written so the metrics
// middleware can label completed requests after ServeHTTP returns.
type recordingWriter struct {
	http.ResponseWriter
	status int
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestMetrics wraps every request with a route/method/status labeled
// duration histogram and counter at the HTTP boundary.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := strconv.Itoa(rec.status)
		requestDuration.WithLabelValues(route, r.Method, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, r.Method, status).Inc()
	})
}
