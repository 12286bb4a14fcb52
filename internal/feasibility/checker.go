// Package feasibility implements C4: whole-solution and incremental
// feasibility checks over the invariants in spec §3 — fallow-aware
// non-overlap per field, per-crop market-demand caps, and planning-horizon
// containment.
package feasibility

import (
	"fmt"

	"github.com/fieldplan/allocator/internal/domain"
)

// Violation describes one broken invariant, used both for whole-solution
// diagnostics and as the negative outcome of an incremental check.
type Violation struct {
	Kind    string
	Detail  string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

const (
	KindFallowOverlap  = "fallow_overlap"
	KindAreaExceeded   = "area_exceeded"
	KindMarketCap      = "market_cap_exceeded"
	KindOutOfHorizon   = "out_of_horizon"
)

// Check validates an entire solution against §3's invariants. Returns the
// first violation found in a deterministic scan order, or nil if the
// solution is feasible.
func Check(s domain.Solution, horizon domain.Horizon) *Violation {
	if v := checkOverlapAndArea(s); v != nil {
		return v
	}
	if v := checkHorizon(s, horizon); v != nil {
		return v
	}
	if v := checkMarketCaps(s); v != nil {
		return v
	}
	return nil
}

func checkOverlapAndArea(s domain.Solution) *Violation {
	byField := map[string][]domain.CropAllocation{}
	var fieldOrder []string
	for _, a := range s.Allocations {
		if a.AreaUsedM2 <= 0 || a.AreaUsedM2 > a.Field.AreaM2 {
			return &Violation{Kind: KindAreaExceeded, Detail: fmt.Sprintf("allocation %s uses %.2f of %.2f m2", a.AllocationID, a.AreaUsedM2, a.Field.AreaM2)}
		}
		if _, seen := byField[a.Field.ID]; !seen {
			fieldOrder = append(fieldOrder, a.Field.ID)
		}
		byField[a.Field.ID] = append(byField[a.Field.ID], a)
	}

	for _, fieldID := range fieldOrder {
		allocs := byField[fieldID]
		sortByStart(allocs)
		for i := 1; i < len(allocs); i++ {
			prev, next := allocs[i-1], allocs[i]
			if next.StartDate.Before(prev.FallowEnd()) {
				return &Violation{
					Kind:   KindFallowOverlap,
					Detail: fmt.Sprintf("field %s: allocation %s starts before %s's fallow end", fieldID, next.AllocationID, prev.AllocationID),
				}
			}
		}
	}
	return nil
}

func checkHorizon(s domain.Solution, horizon domain.Horizon) *Violation {
	for _, a := range s.Allocations {
		if !horizon.Contains(a.StartDate, a.CompletionDate) {
			return &Violation{Kind: KindOutOfHorizon, Detail: fmt.Sprintf("allocation %s falls outside [%s, %s]", a.AllocationID, horizon.Start, horizon.End)}
		}
	}
	return nil
}

func checkMarketCaps(s domain.Solution) *Violation {
	byCrop := map[string]float64{}
	caps := map[string]float64{}
	var cropOrder []string
	for _, a := range s.Allocations {
		if a.Crop.MaxRevenue != nil {
			if _, seen := caps[a.Crop.ID]; !seen {
				cropOrder = append(cropOrder, a.Crop.ID)
			}
			caps[a.Crop.ID] = *a.Crop.MaxRevenue
			if a.ExpectedRevenue != nil {
				byCrop[a.Crop.ID] += *a.ExpectedRevenue
			}
		}
	}
	for _, cropID := range cropOrder {
		total, ok := byCrop[cropID]
		if ok && total > caps[cropID]+1e-6 {
			return &Violation{Kind: KindMarketCap, Detail: fmt.Sprintf("crop %s: revenue %.2f exceeds cap %.2f", cropID, total, caps[cropID])}
		}
	}
	return nil
}

func sortByStart(allocs []domain.CropAllocation) {
	for i := 1; i < len(allocs); i++ {
		for j := i; j > 0 && allocs[j].StartDate.Before(allocs[j-1].StartDate); j-- {
			allocs[j], allocs[j-1] = allocs[j-1], allocs[j]
		}
	}
}

// Delta describes a proposed change to a solution: zero or more
// allocations removed (by ID) and zero or more allocations added.
type Delta struct {
	RemoveIDs []string
	Add       []domain.CropAllocation
}

// CheckIncremental validates only the fields touched by delta, against the
// residual of applying delta to s: the overlap, area and horizon checks
// run over the affected fields' allocations only. Selecting those
// allocations and the market-cap check still take one pass over the whole
// solution.
func CheckIncremental(s domain.Solution, horizon domain.Horizon, delta Delta) *Violation {
	removeSet := map[string]bool{}
	for _, id := range delta.RemoveIDs {
		removeSet[id] = true
	}

	touchedFields := map[string]bool{}
	for _, a := range s.Allocations {
		if removeSet[a.AllocationID] {
			touchedFields[a.Field.ID] = true
		}
	}
	for _, a := range delta.Add {
		touchedFields[a.Field.ID] = true
	}

	residual := make([]domain.CropAllocation, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		if touchedFields[a.Field.ID] && !removeSet[a.AllocationID] {
			residual = append(residual, a)
		}
	}
	residual = append(residual, delta.Add...)

	sub := domain.Solution{Allocations: residual}
	if v := checkOverlapAndArea(sub); v != nil {
		return v
	}
	if v := checkHorizon(sub, horizon); v != nil {
		return v
	}

	// Market caps are global, not per-field, so they must be evaluated
	// against the full residual solution rather than only touched fields.
	full := domain.Solution{Allocations: applyDelta(s, delta)}
	return checkMarketCaps(full)
}

// Apply returns the solution that results from applying delta to s,
// without validating it (callers should CheckIncremental first).
func Apply(s domain.Solution, delta Delta) domain.Solution {
	return domain.Solution{Allocations: applyDelta(s, delta)}
}

func applyDelta(s domain.Solution, delta Delta) []domain.CropAllocation {
	removeSet := map[string]bool{}
	for _, id := range delta.RemoveIDs {
		removeSet[id] = true
	}
	out := make([]domain.CropAllocation, 0, len(s.Allocations)+len(delta.Add))
	for _, a := range s.Allocations {
		if !removeSet[a.AllocationID] {
			out = append(out, a)
		}
	}
	out = append(out, delta.Add...)
	return out
}
