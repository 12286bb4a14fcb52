// Package alns implements C9: Adaptive Large Neighborhood Search with
// destroy/repair operators, adaptive operator weights, and
// simulated-annealing acceptance.
package alns

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/metric"
)

// Context carries the shared pricing inputs every destroy/repair operator
// needs, mirroring internal/metric.Context but scoped to one ALNS run.
type Context struct {
	Pool          []domain.AllocationCandidate
	Horizon       domain.Horizon
	PlanningStart time.Time
	Rules         []domain.InteractionRule
}

// DestroyFunc removes roughly removalRate*len(s.Allocations) allocations
// from s, returning the removed allocations and the residual solution.
type DestroyFunc func(s domain.Solution, removalRate float64, rng RNG) (removed []domain.CropAllocation, residual domain.Solution)

// RepairFunc reinserts feasible candidates into residual, attempting to
// fill the gaps left by removed (though it is free to ignore them and
// insert anything else that fits), returning the repaired solution.
type RepairFunc func(residual domain.Solution, removed []domain.CropAllocation, ctx Context, rng RNG) domain.Solution

func removalCount(total int, rate float64) int {
	n := int(float64(total) * rate)
	if n < 1 && total > 0 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

// RandomRemoval removes a uniform-random subset without replacement.
func RandomRemoval(s domain.Solution, removalRate float64, rng RNG) ([]domain.CropAllocation, domain.Solution) {
	n := len(s.Allocations)
	k := removalCount(n, removalRate)
	if k == 0 {
		return nil, s.Clone()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	removedSet := map[int]bool{}
	for _, i := range idx[:k] {
		removedSet[i] = true
	}
	return splitByIndex(s, removedSet)
}

// WorstRemoval removes the k allocations with the lowest profit
// contribution first.
func WorstRemoval(s domain.Solution, removalRate float64, rng RNG) ([]domain.CropAllocation, domain.Solution) {
	n := len(s.Allocations)
	k := removalCount(n, removalRate)
	if k == 0 {
		return nil, s.Clone()
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return profitOf(s.Allocations[order[i]]) < profitOf(s.Allocations[order[j]])
	})
	removedSet := map[int]bool{}
	for _, i := range order[:k] {
		removedSet[i] = true
	}
	return splitByIndex(s, removedSet)
}

// RelatedRemoval picks one allocation at random, then greedily the
// allocations most "related" to it (same crop, same field, or temporally
// adjacent start date).
func RelatedRemoval(s domain.Solution, removalRate float64, rng RNG) ([]domain.CropAllocation, domain.Solution) {
	n := len(s.Allocations)
	k := removalCount(n, removalRate)
	if k == 0 {
		return nil, s.Clone()
	}

	seed := rng.IntN(n)
	removedSet := map[int]bool{seed: true}
	for len(removedSet) < k {
		bestIdx, bestScore := -1, -1.0
		for i, a := range s.Allocations {
			if removedSet[i] {
				continue
			}
			score := relatedness(a, s.Allocations[seed])
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
		if bestIdx < 0 {
			break
		}
		removedSet[bestIdx] = true
	}
	return splitByIndex(s, removedSet)
}

func relatedness(a, seed domain.CropAllocation) float64 {
	score := 0.0
	if a.Crop.ID == seed.Crop.ID {
		score += 2
	}
	if a.Field.ID == seed.Field.ID {
		score += 2
	}
	gap := a.StartDate.Sub(seed.StartDate).Hours() / 24
	if gap < 0 {
		gap = -gap
	}
	score += 1.0 / (1.0 + gap)
	return score
}

// FieldSliceRemoval removes every allocation on one randomly chosen field.
func FieldSliceRemoval(s domain.Solution, removalRate float64, rng RNG) ([]domain.CropAllocation, domain.Solution) {
	if len(s.Allocations) == 0 {
		return nil, s.Clone()
	}
	fields := distinctFields(s)
	target := fields[rng.IntN(len(fields))]
	removedSet := map[int]bool{}
	for i, a := range s.Allocations {
		if a.Field.ID == target {
			removedSet[i] = true
		}
	}
	return splitByIndex(s, removedSet)
}

// TimeSliceRemoval removes every allocation whose window intersects a
// 30-day date range centred on a randomly chosen allocation's start date.
// The range is not clipped to the planning horizon.
func TimeSliceRemoval(s domain.Solution, removalRate float64, rng RNG) ([]domain.CropAllocation, domain.Solution) {
	if len(s.Allocations) == 0 {
		return nil, s.Clone()
	}
	idx := rng.IntN(len(s.Allocations))
	anchor := s.Allocations[idx].StartDate
	windowDays := 30
	from := anchor.AddDate(0, 0, -windowDays/2)
	to := anchor.AddDate(0, 0, windowDays/2)

	removedSet := map[int]bool{}
	for i, a := range s.Allocations {
		if !a.CompletionDate.Before(from) && !a.StartDate.After(to) {
			removedSet[i] = true
		}
	}
	return splitByIndex(s, removedSet)
}

func distinctFields(s domain.Solution) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range s.Allocations {
		if !seen[a.Field.ID] {
			seen[a.Field.ID] = true
			out = append(out, a.Field.ID)
		}
	}
	sort.Strings(out)
	return out
}

func splitByIndex(s domain.Solution, removedSet map[int]bool) ([]domain.CropAllocation, domain.Solution) {
	var removed, kept []domain.CropAllocation
	for i, a := range s.Allocations {
		if removedSet[i] {
			removed = append(removed, a)
		} else {
			kept = append(kept, a)
		}
	}
	return removed, domain.Solution{Allocations: kept}
}

func profitOf(a domain.CropAllocation) float64 {
	if a.Profit == nil {
		return 0
	}
	return *a.Profit
}

// insertionOption is one feasible way to fill a gap: the priced
// allocation and the profit it would contribute.
type insertionOption struct {
	alloc  domain.CropAllocation
	profit float64
}

// candidateOptions evaluates every pool candidate sharing removed's field
// that is feasible against partial, pricing each under partial's context.
func candidateOptions(partial domain.Solution, removed domain.CropAllocation, ctx Context) []insertionOption {
	var options []insertionOption
	for _, c := range ctx.Pool {
		if c.Field.ID != removed.Field.ID {
			continue
		}
		alloc := domain.FromCandidate(c, uuid.NewString())
		if !isFeasible(partial, alloc, ctx.Horizon) {
			continue
		}
		m, err := metric.Evaluate(alloc.AreaUsedM2, alloc.Crop, alloc.Field, alloc.StartDate, alloc.GrowthDays, metric.Context{
			FieldAllocations: partial.ByField(alloc.Field.ID),
			AllAllocations:   partial.Allocations,
			InteractionRules: ctx.Rules,
			PlanningStart:    ctx.PlanningStart,
		})
		if err != nil {
			continue
		}
		revenue, profit := m.Revenue, m.Profit
		alloc.ExpectedRevenue = &revenue
		alloc.Profit = &profit
		alloc.TotalCost = m.Cost
		options = append(options, insertionOption{alloc: alloc, profit: profit})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].profit > options[j].profit })
	return options
}

func isFeasible(partial domain.Solution, candidate domain.CropAllocation, horizon domain.Horizon) bool {
	for _, a := range partial.Allocations {
		if a.Overlaps(candidate) {
			return false
		}
	}
	return horizon.Contains(candidate.StartDate, candidate.CompletionDate)
}

// priceSolution re-evaluates every allocation's revenue/cost/profit in
// start-date order. A destroy/repair cycle only prices the allocations it
// inserts against the partial solution as it stands at insertion time;
// allocations carried over unchanged from residual would otherwise keep
// whatever pricing they had before the cycle, even though their
// preceding-crop context and running market-cap totals can have shifted.
// Re-pricing the whole solution here keeps every allocation's numbers
// consistent with its final neighbors.
func priceSolution(s domain.Solution, ctx Context) domain.Solution {
	out := s.Clone()
	sortByStart(out.Allocations)
	for i := range out.Allocations {
		a := &out.Allocations[i]
		mctx := metric.Context{
			FieldAllocations: fieldAllocationsBefore(out.Allocations, i, a.Field.ID),
			AllAllocations:   allocationsBefore(out.Allocations, i),
			InteractionRules: ctx.Rules,
			PlanningStart:    ctx.PlanningStart,
		}
		m, err := metric.Evaluate(a.AreaUsedM2, a.Crop, a.Field, a.StartDate, a.GrowthDays, mctx)
		if err != nil {
			continue
		}
		revenue, profit := m.Revenue, m.Profit
		a.ExpectedRevenue = &revenue
		a.Profit = &profit
		a.TotalCost = m.Cost
	}
	return out
}

func sortByStart(allocs []domain.CropAllocation) {
	sort.SliceStable(allocs, func(i, j int) bool { return allocs[i].StartDate.Before(allocs[j].StartDate) })
}

func fieldAllocationsBefore(allocs []domain.CropAllocation, idx int, fieldID string) []domain.CropAllocation {
	var out []domain.CropAllocation
	for i := 0; i < idx; i++ {
		if allocs[i].Field.ID == fieldID {
			out = append(out, allocs[i])
		}
	}
	return out
}

func allocationsBefore(allocs []domain.CropAllocation, idx int) []domain.CropAllocation {
	out := make([]domain.CropAllocation, idx)
	copy(out, allocs[:idx])
	return out
}

// GreedyInsert iterates removed items in random order and, for each, picks
// the best-profit feasible candidate from the pool sharing its field.
func GreedyInsert(residual domain.Solution, removed []domain.CropAllocation, ctx Context, rng RNG) domain.Solution {
	order := make([]int, len(removed))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	partial := residual.Clone()
	for _, idx := range order {
		options := candidateOptions(partial, removed[idx], ctx)
		if len(options) == 0 {
			continue
		}
		partial.Allocations = append(partial.Allocations, options[0].alloc)
	}
	return partial
}

// RegretInsert repeatedly inserts the removed item whose regret (best
// option's profit minus the second-best's) is largest, recomputing
// options against the partial solution after each insertion.
func RegretInsert(residual domain.Solution, removed []domain.CropAllocation, ctx Context, rng RNG) domain.Solution {
	partial := residual.Clone()
	pending := append([]domain.CropAllocation{}, removed...)

	for len(pending) > 0 {
		bestIdx := -1
		bestRegret := -1.0
		var bestOption insertionOption
		hasOption := false

		for i, item := range pending {
			options := candidateOptions(partial, item, ctx)
			if len(options) == 0 {
				continue
			}
			regret := options[0].profit
			if len(options) > 1 {
				regret = options[0].profit - options[1].profit
			}
			if regret > bestRegret {
				bestRegret = regret
				bestIdx = i
				bestOption = options[0]
				hasOption = true
			}
		}

		if !hasOption {
			break
		}
		partial.Allocations = append(partial.Allocations, bestOption.alloc)
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)
	}

	return partial
}
