package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldplan/allocator/internal/phenology"
)

// defaultPhenologyTTL bounds how long a memoized phenology result survives
// in Redis. Phenology results depend only on (crop profile, start date,
// weather series, GDD model) — all fixed for the lifetime of a planning
// horizon — so a generous TTL just bounds staleness across horizon changes,
// not correctness within one.
const defaultPhenologyTTL = 24 * time.Hour

// PhenologyCache is a Redis-backed implementation of
// candidate.PhenologyCache, for sharing memoized phenology.Evaluate results
// across optimizer process instances rather than just within one run.
type PhenologyCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewPhenologyCache wraps a RedisClient as a candidate.PhenologyCache.
func NewPhenologyCache(client *RedisClient) *PhenologyCache {
	return &PhenologyCache{client: client, ttl: defaultPhenologyTTL}
}

func phenologyCacheKey(cropID string, start time.Time) string {
	return fmt.Sprintf("phenology:%s:%s", cropID, start.Format(time.RFC3339))
}

// Get satisfies candidate.PhenologyCache. A Redis miss, decode failure, or
// breaker-open error are all treated as a cache miss: memoization is a
// performance optimization, never a correctness dependency, so callers
// always fall through to phenology.Evaluate on any failure here.
func (c *PhenologyCache) Get(cropID string, start time.Time) (phenology.Result, bool) {
	var result phenology.Result
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Get(ctx, phenologyCacheKey(cropID, start), &result); err != nil {
		return phenology.Result{}, false
	}
	return result, true
}

// Set satisfies candidate.PhenologyCache, writing through best-effort: a
// failed write never propagates, since the candidate it would have cached
// still has its correct locally-computed result.
func (c *PhenologyCache) Set(cropID string, start time.Time, result phenology.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = c.client.Set(ctx, phenologyCacheKey(cropID, start), result, c.ttl)
}
