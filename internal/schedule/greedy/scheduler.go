// Package greedy implements C6: a fast, non-optimal alternative to the DP
// scheduler (internal/schedule/dp) for large candidate sets or tight
// deadlines — sort by baseline profit rate and accept whatever remains
// feasible.
//
// Same constructorless shape as the DP scheduler, trading its exact
// recurrence for a single descending pass when the caller only needs
// "good enough, now".
package greedy

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/feasibility"
	"github.com/fieldplan/allocator/internal/metric"
)

// Schedule implements §4.6: candidates are sorted by baseline profit rate
// descending, then scanned once in that order. Each is accepted iff
// adding it keeps the solution feasible and does not push its crop's
// booked revenue past the market cap; rejection is final, since the
// solution only ever grows and a conflict against it cannot resolve
// itself by visiting candidates later in the scan.
func Schedule(candidates []domain.AllocationCandidate, horizon domain.Horizon, planningStart time.Time, rules []domain.InteractionRule) domain.Solution {
	ordered := make([]domain.AllocationCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BaselineProfitRate() > ordered[j].BaselineProfitRate()
	})

	solution := domain.Solution{}
	for _, c := range ordered {
		alloc := domain.FromCandidate(c, uuid.NewString())

		delta := feasibility.Delta{Add: []domain.CropAllocation{alloc}}
		if v := feasibility.CheckIncremental(solution, horizon, delta); v != nil {
			continue
		}

		ctx := metric.Context{
			FieldAllocations: solution.ByField(alloc.Field.ID),
			AllAllocations:   solution.Allocations,
			InteractionRules: rules,
			PlanningStart:    planningStart,
		}
		m, err := metric.Evaluate(alloc.AreaUsedM2, alloc.Crop, alloc.Field, alloc.StartDate, alloc.GrowthDays, ctx)
		if err != nil {
			continue
		}

		if alloc.Crop.MaxRevenue != nil {
			booked := 0.0
			for _, a := range solution.Allocations {
				if a.Crop.ID == alloc.Crop.ID && a.ExpectedRevenue != nil {
					booked += *a.ExpectedRevenue
				}
			}
			if booked+m.Revenue > *alloc.Crop.MaxRevenue+1e-6 {
				continue
			}
		}

		revenue := m.Revenue
		profit := m.Profit
		alloc.ExpectedRevenue = &revenue
		alloc.Profit = &profit
		alloc.TotalCost = m.Cost
		solution.Allocations = append(solution.Allocations, alloc)
	}

	return solution
}
