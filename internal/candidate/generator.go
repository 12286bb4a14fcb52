// Package candidate implements C3: for every (field, crop) pair, the set
// of viable growing windows at each configured area level.
package candidate

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/phenology"
)

// Input bundles everything the generator needs for one run.
type Input struct {
	Fields    []domain.Field
	Crops     []domain.Crop
	Profiles  map[string][]domain.StageRequirement // crop.ID -> stages
	Weather   phenology.WeatherLookup
	Horizon   domain.Horizon
	Config    domain.OptimizationConfig
	Cache     PhenologyCache
}

// pairResult holds the generated and filtered candidates for one
// (field, crop) pair plus generation stats for observability.
type pairResult struct {
	candidates []domain.AllocationCandidate
	evaluated  int
}

// Generate runs C3 over every (field, crop) pair. When
// Config.EnableParallelCandidateGeneration is set, pairs are processed by
// a bounded worker pool of runtime.GOMAXPROCS(0) workers, capped at the
// number of pairs; the phenology cache absorbs the resulting concurrent
// access.
func Generate(in Input) []domain.AllocationCandidate {
	cache := in.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}

	type pairJob struct {
		field domain.Field
		crop  domain.Crop
	}
	var jobs []pairJob
	for _, f := range in.Fields {
		for _, c := range in.Crops {
			jobs = append(jobs, pairJob{f, c})
		}
	}

	results := make([]pairResult, len(jobs))

	runPair := func(idx int) {
		job := jobs[idx]
		stages := in.Profiles[job.crop.ID]
		results[idx] = generateForPair(job.field, job.crop, stages, in.Weather, in.Horizon, in.Config, cache)
	}

	if in.Config.EnableParallelCandidateGeneration && len(jobs) > 1 {
		workerCount := runtime.GOMAXPROCS(0)
		if workerCount > len(jobs) {
			workerCount = len(jobs)
		}
		if workerCount < 1 {
			workerCount = 1
		}

		indices := make(chan int, len(jobs))
		for i := range jobs {
			indices <- i
		}
		close(indices)

		var wg sync.WaitGroup
		for w := 0; w < workerCount; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range indices {
					runPair(idx)
				}
			}()
		}
		wg.Wait()
	} else {
		for i := range jobs {
			runPair(i)
		}
	}

	var all []domain.AllocationCandidate
	for _, r := range results {
		all = append(all, r.candidates...)
	}
	return all
}

// generateForPair implements §4.3 steps 1-4 for a single (field, crop).
func generateForPair(field domain.Field, crop domain.Crop, stages []domain.StageRequirement, weather phenology.WeatherLookup, horizon domain.Horizon, cfg domain.OptimizationConfig, cache PhenologyCache) pairResult {
	if len(stages) == 0 {
		return pairResult{}
	}

	type window struct {
		start      time.Time
		completion time.Time
		growthDays int
		gdd        float64
	}
	var windows []window

	evaluated := 0
	for start := horizon.Start; !start.After(horizon.End); start = start.AddDate(0, 0, 1) {
		evaluated++
		var res phenology.Result
		var err error
		if cached, ok := cache.Get(crop.ID, start); ok {
			res = cached
		} else {
			res, err = phenology.Evaluate(stages, start, horizon.End, weather, cfg.GDDModel)
			if err == nil {
				cache.Set(crop.ID, start, res)
			}
		}
		if err != nil {
			continue
		}
		windows = append(windows, window{start, res.CompletionDate, res.GrowthDays, res.AccumulatedGDD})
	}

	var candidates []domain.AllocationCandidate
	for _, w := range windows {
		for _, ratio := range cfg.QuantityLevels {
			areaUsed, qty := quantityForLevel(field.AreaM2, crop.AreaPerUnitM2, ratio)
			if qty <= 0 {
				continue
			}
			candidates = append(candidates, domain.AllocationCandidate{
				Field:          field,
				Crop:           crop,
				StartDate:      w.start,
				CompletionDate: w.completion,
				GrowthDays:     w.growthDays,
				AccumulatedGDD: w.gdd,
				AreaUsedM2:     areaUsed,
				Quantity:       qty,
			})
		}
	}

	candidates = topKByProfitRate(candidates, cfg.TopPeriodCandidatesPerPair)

	if cfg.EnableCandidateFiltering {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if c.BaselineProfitRate() > 0 {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	return pairResult{candidates: candidates, evaluated: evaluated}
}

// topKByProfitRate retains the top K candidates for the whole (field,
// crop) pair by baseline profit rate (§4.3 step 3), across every start
// date and area level together.
func topKByProfitRate(candidates []domain.AllocationCandidate, k int) []domain.AllocationCandidate {
	if k <= 0 || k >= len(candidates) {
		return candidates
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].BaselineProfitRate() > candidates[j].BaselineProfitRate()
	})
	return candidates[:k]
}
