package weather

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/fieldplan/allocator/internal/domain"
)

// CircuitBreakingSource wraps a Source with a circuit breaker, tripping
// after a burst of failures so a struggling weather backend doesn't stall
// every Optimize call behind a string of slow timeouts.
type CircuitBreakingSource struct {
	inner   Source
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakingSource wraps inner with a breaker tuned the same way
// as the optimizer's other external-dependency breakers (see
// internal/cache.NewRedisClient): trip once at least 3 requests have run
// and 60% have failed, half-open again after 60 seconds.
func NewCircuitBreakingSource(inner Source) *CircuitBreakingSource {
	settings := gobreaker.Settings{
		Name:    "weather-source-breaker",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
	return &CircuitBreakingSource{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// FetchRange implements Source.
func (c *CircuitBreakingSource) FetchRange(ctx context.Context, locationKey string, start, end time.Time) ([]domain.WeatherRecord, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.FetchRange(ctx, locationKey, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WeatherRecord), nil
}
