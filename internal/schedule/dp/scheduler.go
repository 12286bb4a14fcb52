// Package dp implements C5: per-field weighted interval scheduling by
// dynamic programming, followed by a global pass enforcing per-crop
// market-demand caps across the fields' combined picks.
//
// A small constructorless struct wrapping a pure planning algorithm: sort,
// then resolve conflicts deterministically.
package dp

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/metric"
)

// Schedule runs C5 over the full candidate set. Candidates are grouped by
// field; each field is solved independently by weighted interval
// scheduling (§4.5), then the combined per-field picks are trimmed to
// respect global per-crop market caps before being returned as a priced
// Solution.
func Schedule(candidates []domain.AllocationCandidate, planningStart time.Time, rules []domain.InteractionRule) domain.Solution {
	byField := map[string][]domain.AllocationCandidate{}
	var fieldOrder []string
	for _, c := range candidates {
		if _, seen := byField[c.Field.ID]; !seen {
			fieldOrder = append(fieldOrder, c.Field.ID)
		}
		byField[c.Field.ID] = append(byField[c.Field.ID], c)
	}

	var picked []domain.CropAllocation
	for _, fieldID := range fieldOrder {
		picked = append(picked, scheduleField(byField[fieldID], planningStart, rules)...)
	}

	return enforceMarketCaps(domain.Solution{Allocations: picked})
}

// scheduleField implements the per-field DP of §4.5: sort candidates by
// fallow-adjusted completion date, binary-search the latest non-conflicting
// predecessor for each, and take the standard weighted interval scheduling
// recurrence. Each candidate's weight comes from metric.Evaluate under a
// field-only pricing context anchored on its DP predecessor, since that
// predecessor is exactly the allocation that would immediately precede it
// in any selection that includes it. Global market caps are resolved
// afterward, across every field's picks together.
func scheduleField(field []domain.AllocationCandidate, planningStart time.Time, rules []domain.InteractionRule) []domain.CropAllocation {
	if len(field) == 0 {
		return nil
	}

	sort.SliceStable(field, func(i, j int) bool {
		return fallowAdjustedEnd(field[i]).Before(fallowAdjustedEnd(field[j]))
	})

	n := len(field)
	alloc := make([]domain.CropAllocation, n)
	for i := 0; i < n; i++ {
		alloc[i] = domain.FromCandidate(field[i], uuid.NewString())
	}

	predecessor := make([]int, n)
	for i := 0; i < n; i++ {
		predecessor[i] = latestCompatible(field, i)
	}

	// M[i] is the best achievable profit using only candidates[0:i]; M is
	// 1-indexed so M[0] = 0 represents the empty prefix and chosen[i]
	// holds the indices (into field/alloc) selected by that prefix.
	M := make([]float64, n+1)
	chosen := make([][]int, n+1)
	priced := make([]metric.Metrics, n)

	for i := 1; i <= n; i++ {
		idx := i - 1
		var fieldCtx []domain.CropAllocation
		if p := predecessor[idx]; p >= 0 {
			fieldCtx = []domain.CropAllocation{alloc[p]}
		}
		ctx := metric.Context{
			FieldAllocations: fieldCtx,
			InteractionRules: rules,
			PlanningStart:    planningStart,
		}
		m, err := metric.Evaluate(field[idx].AreaUsedM2, field[idx].Crop, field[idx].Field, field[idx].StartDate, field[idx].GrowthDays, ctx)
		if err != nil {
			m = metric.Metrics{}
		}
		priced[idx] = m

		pSlot := predecessor[idx] + 1
		withCandidate := m.Profit + M[pSlot]
		without := M[i-1]

		if withCandidate > without {
			M[i] = withCandidate
			chosen[i] = append(append([]int{}, chosen[pSlot]...), idx)
		} else {
			M[i] = without
			chosen[i] = chosen[i-1]
		}
	}

	var out []domain.CropAllocation
	for _, idx := range chosen[n] {
		a := alloc[idx]
		revenue := priced[idx].Revenue
		profit := priced[idx].Profit
		a.ExpectedRevenue = &revenue
		a.Profit = &profit
		a.TotalCost = priced[idx].Cost
		out = append(out, a)
	}
	return out
}

// latestCompatible returns the index (in field, sorted by fallow-adjusted
// completion) of the latest candidate whose fallow-adjusted completion is
// at or before candidates[i]'s start date, or -1 if none.
func latestCompatible(field []domain.AllocationCandidate, i int) int {
	target := field[i].StartDate
	lo, hi := 0, i-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if !fallowAdjustedEnd(field[mid]).After(target) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func fallowAdjustedEnd(c domain.AllocationCandidate) time.Time {
	return c.CompletionDate.AddDate(0, 0, c.Field.FallowDays)
}

// allocationProfitRate is profit/cost for an already-priced allocation,
// the same ratio AllocationCandidate.BaselineProfitRate computes before
// pricing, with the same zero-cost fallback.
func allocationProfitRate(a domain.CropAllocation) float64 {
	profit := 0.0
	if a.Profit != nil {
		profit = *a.Profit
	}
	if a.TotalCost <= 0 {
		if profit > 0 {
			return profit
		}
		return 0
	}
	return profit / a.TotalCost
}

// enforceMarketCaps implements the global pass following per-field DP:
// candidates for a capped crop are sorted by profit rate descending and
// kept until the cap is reached; the rest are dropped. Survivors' pricing,
// computed from their own field-local context, is left untouched.
func enforceMarketCaps(s domain.Solution) domain.Solution {
	byCrop := map[string][]int{}
	caps := map[string]float64{}
	for i, a := range s.Allocations {
		if a.Crop.MaxRevenue != nil {
			byCrop[a.Crop.ID] = append(byCrop[a.Crop.ID], i)
			caps[a.Crop.ID] = *a.Crop.MaxRevenue
		}
	}

	drop := map[int]bool{}
	for cropID, idxs := range byCrop {
		sort.SliceStable(idxs, func(i, j int) bool {
			return allocationProfitRate(s.Allocations[idxs[i]]) > allocationProfitRate(s.Allocations[idxs[j]])
		})
		cumulative := 0.0
		capAmount := caps[cropID]
		capHit := false
		for _, idx := range idxs {
			rev := 0.0
			if s.Allocations[idx].ExpectedRevenue != nil {
				rev = *s.Allocations[idx].ExpectedRevenue
			}
			if capHit || cumulative+rev > capAmount+1e-6 {
				capHit = true
				drop[idx] = true
				continue
			}
			cumulative += rev
		}
	}

	if len(drop) == 0 {
		return s
	}
	var out []domain.CropAllocation
	for i, a := range s.Allocations {
		if !drop[i] {
			out = append(out, a)
		}
	}
	return domain.Solution{Allocations: out}
}
