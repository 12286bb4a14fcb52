package candidate

import (
	"sync"
	"time"

	"github.com/fieldplan/allocator/internal/phenology"
)

// phenologyKey identifies one memoized phenology run. Multiple fields
// sharing the same weather series and the same crop/start-date pairing
// collapse onto a single cache entry.
type phenologyKey struct {
	cropID string
	start  time.Time
}

// PhenologyCache memoizes phenology.Evaluate results within a single run.
// Implementations must be safe for concurrent use: candidate generation
// across (field, crop) pairs runs in parallel when configured to, and
// multiple fields growing the same crop race to populate the same key.
// All writes are idempotent (same inputs always produce the same
// outputs), so a benign double-compute on a cache race is harmless.
type PhenologyCache interface {
	Get(cropID string, start time.Time) (phenology.Result, bool)
	Set(cropID string, start time.Time, result phenology.Result)
}

// memCache is the default in-process cache, backed by a mutex-guarded map
// keyed by (crop, start date).
type memCache struct {
	mu    sync.RWMutex
	store map[phenologyKey]phenology.Result
}

// NewMemoryCache returns a thread-safe in-process PhenologyCache.
func NewMemoryCache() PhenologyCache {
	return &memCache{store: make(map[phenologyKey]phenology.Result)}
}

func (c *memCache) Get(cropID string, start time.Time) (phenology.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.store[phenologyKey{cropID, start}]
	return r, ok
}

func (c *memCache) Set(cropID string, start time.Time, result phenology.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[phenologyKey{cropID, start}] = result
}
