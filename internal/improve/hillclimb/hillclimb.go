// Package hillclimb implements C8: steepest-ascent local search over the
// neighborhood operators in internal/neighborhood, re-pricing each
// candidate neighbor through internal/metric and accepting the best
// feasible improving move each iteration.
//
// A small Config value plus a driver holding only what it needs for one
// run, the same split a worker-loop config/driver pair uses.
package hillclimb

import (
	"time"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/feasibility"
	"github.com/fieldplan/allocator/internal/metric"
	"github.com/fieldplan/allocator/internal/neighborhood"
)

// Config parameterizes one hill-climbing run.
type Config struct {
	MaxIterations     int
	MaxNoImprovement  int
	ImprovementRatio  float64
	Horizon           domain.Horizon
	PlanningStart     time.Time
	InteractionRules  []domain.InteractionRule
	QuantityMultipliers []float64
	Deadline          time.Time // zero means no deadline
}

// Result reports the outcome of a run, including why it stopped.
type Result struct {
	Solution   domain.Solution
	Iterations int
	Converged  bool
	StopReason string
}

const convergenceStreak = 5
const convergenceTolerance = 0.001

// Run repeatedly replaces the current solution with its best-improving
// feasible neighbor until no neighbor improves profit at all, a
// no-improvement streak bound is hit (an accepted move that gains no more
// than cfg.ImprovementRatio of current profit extends the streak), profit
// stays within 0.1% of the best seen for 5 consecutive iterations, the
// iteration cap is reached, or the deadline passes. Iterations counts
// accepted moves. The no-improvement
// bound is adaptive: max(10, min(cfg.MaxNoImprovement, problemSize/2)),
// so small problems don't get stuck cycling and large ones aren't cut off
// prematurely.
func Run(initial domain.Solution, pool []domain.AllocationCandidate, cfg Config) Result {
	current := price(initial, cfg)
	bestProfit := current.TotalProfit()

	problemSize := len(pool) + len(current.Allocations)
	noImprovementBound := cfg.MaxNoImprovement
	if problemSize/2 < noImprovementBound {
		noImprovementBound = problemSize / 2
	}
	if noImprovementBound < 10 {
		noImprovementBound = 10
	}

	noImprovementStreak := 0
	convergedStreak := 0
	iterations := 0
	stopReason := "no_improving_neighbor"

	for iterations < cfg.MaxIterations {
		if !cfg.Deadline.IsZero() && time.Now().After(cfg.Deadline) {
			stopReason = "deadline"
			break
		}

		moves := neighborhood.Generate(current, pool, cfg.Horizon, cfg.QuantityMultipliers)
		bestCandidate, bestDelta, improved := bestMove(current, moves, cfg)

		if !improved {
			break
		}
		iterations++

		if bestDelta > cfg.ImprovementRatio*absOrOne(current.TotalProfit()) {
			noImprovementStreak = 0
		} else {
			noImprovementStreak++
		}

		current = bestCandidate
		profit := current.TotalProfit()
		if profit > bestProfit {
			bestProfit = profit
		}

		relGap := (bestProfit - profit) / absOrOne(bestProfit)
		if relGap <= convergenceTolerance {
			convergedStreak++
		} else {
			convergedStreak = 0
		}

		if convergedStreak >= convergenceStreak {
			stopReason = "converged"
			return Result{Solution: current, Iterations: iterations, Converged: true, StopReason: stopReason}
		}
		if noImprovementStreak >= noImprovementBound {
			stopReason = "no_improvement_bound"
			break
		}
	}

	if iterations >= cfg.MaxIterations {
		stopReason = "max_iterations"
	}

	return Result{Solution: current, Iterations: iterations, Converged: false, StopReason: stopReason}
}

// bestMove prices every feasible neighbor and returns the one with the
// greatest profit improvement over current, or improved=false if none
// beats current's profit.
func bestMove(current domain.Solution, moves []neighborhood.Move, cfg Config) (domain.Solution, float64, bool) {
	baseProfit := current.TotalProfit()
	var best domain.Solution
	bestDelta := 0.0
	found := false

	for _, mv := range moves {
		candidate := feasibility.Apply(current, mv.Delta)
		priced := price(candidate, cfg)
		delta := priced.TotalProfit() - baseProfit
		if delta > bestDelta {
			best = priced
			bestDelta = delta
			found = true
		}
	}

	return best, bestDelta, found && bestDelta > 0
}

// price re-evaluates every allocation's revenue/cost/profit in start-date
// order, so each allocation's preceding-crop/soil-recovery context
// reflects the solution as it stands after the candidate move.
func price(s domain.Solution, cfg Config) domain.Solution {
	out := s.Clone()
	sortByStart(out.Allocations)
	for i := range out.Allocations {
		a := &out.Allocations[i]
		ctx := metric.Context{
			FieldAllocations: fieldAllocationsBefore(out.Allocations, i, a.Field.ID),
			AllAllocations:   allocationsBefore(out.Allocations, i),
			InteractionRules: cfg.InteractionRules,
			PlanningStart:    cfg.PlanningStart,
		}
		m, err := metric.Evaluate(a.AreaUsedM2, a.Crop, a.Field, a.StartDate, a.GrowthDays, ctx)
		if err != nil {
			continue
		}
		revenue := m.Revenue
		profit := m.Profit
		a.ExpectedRevenue = &revenue
		a.Profit = &profit
		a.TotalCost = m.Cost
	}
	return out
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

func sortByStart(allocs []domain.CropAllocation) {
	for i := 1; i < len(allocs); i++ {
		for j := i; j > 0 && allocs[j].StartDate.Before(allocs[j-1].StartDate); j-- {
			allocs[j], allocs[j-1] = allocs[j-1], allocs[j]
		}
	}
}

func absOrOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	if v < 0 {
		return -v
	}
	return v
}
