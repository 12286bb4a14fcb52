// Package metrics exposes a Prometheus recorder for the optimize/adjust
// pipeline's scheduler, local-search, and ALNS stages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder wraps the histograms and counters the engine pipeline reports
// into as it runs C5/C6 scheduling, C8 hill climbing, and C9 ALNS.
type Recorder struct {
	optimizeLatency    *prometheus.HistogramVec
	schedulerRejections *prometheus.CounterVec
	localSearchIterations prometheus.Histogram
	alnsIterations      prometheus.Histogram
	candidatesGenerated prometheus.Histogram
	invariantViolations prometheus.Counter
}

// NewRecorder builds and registers a Recorder against the default
// Prometheus registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		optimizeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "allocator",
				Subsystem: "engine",
				Name:      "optimize_latency_seconds",
				Help:      "Latency of a full Optimize/Adjust call by algorithm used",
				Buckets:   prometheus.LinearBuckets(0, 0.5, 10),
			},
			[]string{"algorithm"},
		),
		schedulerRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "allocator",
				Subsystem: "engine",
				Name:      "scheduler_rejections_total",
				Help:      "Candidates rejected by the scheduler, by reason",
			},
			[]string{"reason"},
		),
		localSearchIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "allocator",
			Subsystem: "engine",
			Name:      "hillclimb_iterations",
			Help:      "Iterations run by the hill-climbing local search before stopping",
			Buckets:   prometheus.LinearBuckets(0, 20, 10),
		}),
		alnsIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "allocator",
			Subsystem: "engine",
			Name:      "alns_iterations",
			Help:      "Iterations run by ALNS before stopping",
			Buckets:   prometheus.LinearBuckets(0, 100, 10),
		}),
		candidatesGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "allocator",
			Subsystem: "engine",
			Name:      "candidates_generated",
			Help:      "Allocation candidates produced per Optimize call",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		invariantViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "allocator",
			Subsystem: "engine",
			Name:      "internal_invariant_violations_total",
			Help:      "Post-hoc feasibility failures on a produced solution",
		}),
	}

	prometheus.MustRegister(
		r.optimizeLatency,
		r.schedulerRejections,
		r.localSearchIterations,
		r.alnsIterations,
		r.candidatesGenerated,
		r.invariantViolations,
	)

	return r
}

// ObserveOptimizeLatency records how long one Optimize/Adjust call took.
func (r *Recorder) ObserveOptimizeLatency(algorithm string, d time.Duration) {
	r.optimizeLatency.WithLabelValues(algorithm).Observe(d.Seconds())
}

// IncSchedulerRejection records one candidate rejected by a scheduler or
// neighborhood operator, tagged with the reason it failed
// feasibility.CheckIncremental.
func (r *Recorder) IncSchedulerRejection(reason string) {
	r.schedulerRejections.WithLabelValues(reason).Inc()
}

// ObserveLocalSearchIterations records how many iterations hill climbing ran.
func (r *Recorder) ObserveLocalSearchIterations(n int) {
	r.localSearchIterations.Observe(float64(n))
}

// ObserveALNSIterations records how many iterations ALNS ran.
func (r *Recorder) ObserveALNSIterations(n int) {
	r.alnsIterations.Observe(float64(n))
}

// ObserveCandidatesGenerated records the candidate pool size for one call.
func (r *Recorder) ObserveCandidatesGenerated(n int) {
	r.candidatesGenerated.Observe(float64(n))
}

// IncInvariantViolation records a post-hoc feasibility failure — this
// should never fire outside of a defect in a scheduler or operator.
func (r *Recorder) IncInvariantViolation() {
	r.invariantViolations.Inc()
}
