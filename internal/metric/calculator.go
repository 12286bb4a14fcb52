// Package metric implements C2: the pure, contextual profit calculator.
// The same candidate can price differently depending on what else is
// already scheduled — market caps, the preceding crop's interaction, and
// the soil-recovery gap — so every evaluation takes an explicit Context
// rather than reading from package-level state.
package metric

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/pkg/constants"
)

// ErrCalculationFailure wraps unexpected inputs the calculator refuses to
// price (negative area, zero growth days).
var ErrCalculationFailure = errors.New("metric: calculation failed")

// Context carries everything the calculator needs beyond the candidate
// itself: the allocations already committed in the same field (used to
// find the immediately preceding crop and the soil-recovery gap), the
// allocations already committed anywhere (used for the market-demand
// cap), the interaction rules, and the planning start (used as the
// recovery-gap anchor when there is no preceding allocation).
type Context struct {
	FieldAllocations   []domain.CropAllocation
	AllAllocations     []domain.CropAllocation
	InteractionRules   []domain.InteractionRule
	PlanningStart      time.Time
}

// Metrics is the priced outcome of one candidate in one context.
type Metrics struct {
	Revenue           float64
	Cost              float64
	Profit            float64
	InteractionImpact float64
	SoilRecoveryFactor float64
}

// Evaluate implements §4.2's seven-step algorithm.
func Evaluate(areaUsed float64, crop domain.Crop, field domain.Field, startDate time.Time, growthDays int, ctx Context) (Metrics, error) {
	if areaUsed <= 0 {
		return Metrics{}, errors.Wrap(ErrCalculationFailure, "area_used must be positive")
	}
	if growthDays <= 0 {
		return Metrics{}, errors.Wrap(ErrCalculationFailure, "growth_days must be positive")
	}

	baseRevenue := areaUsed * crop.RevenuePerArea

	constrainedRevenue := applyMarketCap(baseRevenue, crop, ctx.AllAllocations)

	prev, hasPrev := precedingAllocation(ctx.FieldAllocations, startDate)

	impact := interactionImpact(prev, hasPrev, crop, ctx.InteractionRules)

	recovery := soilRecoveryFactor(prev, hasPrev, startDate, ctx.PlanningStart)

	revenue := constrainedRevenue * impact * recovery
	cost := float64(growthDays) * field.DailyFixedCost
	profit := revenue - cost

	return Metrics{
		Revenue:            revenue,
		Cost:               cost,
		Profit:             profit,
		InteractionImpact:  impact,
		SoilRecoveryFactor: recovery,
	}, nil
}

// applyMarketCap implements §4.2 step 2.
func applyMarketCap(baseRevenue float64, crop domain.Crop, allAllocations []domain.CropAllocation) float64 {
	if crop.MaxRevenue == nil {
		return baseRevenue
	}
	alreadySold := 0.0
	for _, a := range allAllocations {
		if a.Crop.ID == crop.ID && a.ExpectedRevenue != nil {
			alreadySold += *a.ExpectedRevenue
		}
	}
	remaining := math.Max(0, *crop.MaxRevenue-alreadySold)
	return math.Min(baseRevenue, remaining)
}

// precedingAllocation finds the allocation in the same field with the
// latest completion date at or before startDate (§4.2 step 3/4).
func precedingAllocation(fieldAllocations []domain.CropAllocation, startDate time.Time) (domain.CropAllocation, bool) {
	var best domain.CropAllocation
	found := false
	for _, a := range fieldAllocations {
		if a.CompletionDate.After(startDate) {
			continue
		}
		if !found || a.CompletionDate.After(best.CompletionDate) {
			best = a
			found = true
		}
	}
	return best, found
}

// interactionImpact implements §4.2 step 3.
func interactionImpact(prev domain.CropAllocation, hasPrev bool, crop domain.Crop, rules []domain.InteractionRule) float64 {
	if !hasPrev {
		return 1.0
	}
	impact := 1.0
	for _, rule := range rules {
		if rule.Matches(prev.Crop.Groups, crop.Groups) {
			impact *= rule.ImpactRatio
		}
	}
	return impact
}

// soilRecoveryFactor implements §4.2 step 4.
func soilRecoveryFactor(prev domain.CropAllocation, hasPrev bool, startDate, planningStart time.Time) float64 {
	var anchor time.Time
	if hasPrev {
		anchor = prev.CompletionDate
	} else {
		anchor = planningStart
	}
	gapDays := int(startDate.Sub(anchor).Hours() / 24)

	switch {
	case gapDays < constants.SoilRecoveryTier1Days:
		return constants.SoilRecoveryBase
	case gapDays < constants.SoilRecoveryTier2Days:
		return constants.SoilRecoveryTier1
	case gapDays < constants.SoilRecoveryTier3Days:
		return constants.SoilRecoveryTier2
	default:
		return math.Min(constants.SoilRecoveryTier3, constants.SoilRecoveryCap)
	}
}

// Price fills Revenue/Cost/Profit on a CropAllocation in place, returning
// the computed Metrics for callers that also want the intermediate
// factors (e.g. for diagnostics).
func Price(alloc *domain.CropAllocation, ctx Context) (Metrics, error) {
	m, err := Evaluate(alloc.AreaUsedM2, alloc.Crop, alloc.Field, alloc.StartDate, alloc.GrowthDays, ctx)
	if err != nil {
		return Metrics{}, err
	}
	revenue := m.Revenue
	profit := m.Profit
	alloc.ExpectedRevenue = &revenue
	alloc.Profit = &profit
	alloc.TotalCost = m.Cost
	return m, nil
}
