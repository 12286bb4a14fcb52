// Package neighborhood implements C7: the local-search move set shared by
// hill climbing (internal/improve/hillclimb) and ALNS
// (internal/improve/alns) — field swap, field move, crop change, crop
// insert, crop remove, period replace, and quantity adjust. Every operator
// only ever emits moves that feasibility.CheckIncremental accepts; an
// infeasible candidate move is silently dropped rather than surfaced,
// since infeasibility here is routine search noise, not an error.
package neighborhood

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/feasibility"
)

// Move is a candidate transformation of a solution: remove zero or more
// existing allocations and add zero or more replacements.
type Move struct {
	Kind  string
	Delta feasibility.Delta
}

const (
	KindFieldSwap       = "field_swap"
	KindFieldMove       = "field_move"
	KindCropChange      = "crop_change"
	KindCropInsert      = "crop_insert"
	KindCropRemove      = "crop_remove"
	KindPeriodReplace   = "period_replace"
	KindQuantityAdjust  = "quantity_adjust"
)

// Generate produces every feasible neighbor move of s drawn from the pool
// of unused candidates, restricted to the operator kinds enabled by
// caller-supplied candidate pools. Each returned Move's Delta can be
// applied with feasibility.Apply once priced.
func Generate(s domain.Solution, pool []domain.AllocationCandidate, horizon domain.Horizon, quantityMultipliers []float64) []Move {
	var moves []Move
	moves = append(moves, fieldSwaps(s, horizon)...)
	moves = append(moves, fieldMoves(s, pool, horizon)...)
	moves = append(moves, cropChanges(s, pool, horizon)...)
	moves = append(moves, cropInserts(s, pool, horizon)...)
	moves = append(moves, cropRemoves(s)...)
	moves = append(moves, periodReplaces(s, pool, horizon)...)
	moves = append(moves, quantityAdjusts(s, horizon, quantityMultipliers)...)
	return moves
}

// fieldSwaps exchanges the fields of two allocations that do not already
// share a field, keeping each allocation's crop/start/completion/quantity.
func fieldSwaps(s domain.Solution, horizon domain.Horizon) []Move {
	var moves []Move
	for i := 0; i < len(s.Allocations); i++ {
		for j := i + 1; j < len(s.Allocations); j++ {
			a, b := s.Allocations[i], s.Allocations[j]
			if a.Field.ID == b.Field.ID {
				continue
			}
			if a.AreaUsedM2 > b.Field.AreaM2 || b.AreaUsedM2 > a.Field.AreaM2 {
				continue
			}

			swappedA := a
			swappedA.Field = b.Field
			swappedA.AllocationID = uuid.NewString()
			swappedB := b
			swappedB.Field = a.Field
			swappedB.AllocationID = uuid.NewString()

			delta := feasibility.Delta{
				RemoveIDs: []string{a.AllocationID, b.AllocationID},
				Add:       []domain.CropAllocation{swappedA, swappedB},
			}
			if feasibility.CheckIncremental(s, horizon, delta) == nil {
				moves = append(moves, Move{Kind: KindFieldSwap, Delta: delta})
			}
		}
	}
	return moves
}

// fieldMoves relocates one existing allocation onto a different field
// drawn from the candidate pool, keeping the same crop and quantity level
// where the target field's area supports it. For each candidate target
// field it prefers an exact start-date match; absent one, it falls back to
// every candidate at that field sharing the closest start date instead of
// producing no neighbor at all for that field.
func fieldMoves(s domain.Solution, pool []domain.AllocationCandidate, horizon domain.Horizon) []Move {
	var moves []Move
	for _, a := range s.Allocations {
		byField := map[string][]domain.AllocationCandidate{}
		var fieldOrder []string
		for _, c := range pool {
			if c.Field.ID == a.Field.ID || c.Crop.ID != a.Crop.ID {
				continue
			}
			if _, seen := byField[c.Field.ID]; !seen {
				fieldOrder = append(fieldOrder, c.Field.ID)
			}
			byField[c.Field.ID] = append(byField[c.Field.ID], c)
		}

		for _, fieldID := range fieldOrder {
			for _, c := range fieldMoveCandidates(byField[fieldID], a.StartDate) {
				moved := domain.FromCandidate(c, uuid.NewString())
				delta := feasibility.Delta{
					RemoveIDs: []string{a.AllocationID},
					Add:       []domain.CropAllocation{moved},
				}
				if feasibility.CheckIncremental(s, horizon, delta) == nil {
					moves = append(moves, Move{Kind: KindFieldMove, Delta: delta})
				}
			}
		}
	}
	return moves
}

// fieldMoveCandidates picks which of a target field's same-crop candidates
// a field move should consider: every exact match of target's start date
// when one exists, otherwise every candidate sharing the single closest
// start date.
func fieldMoveCandidates(candidates []domain.AllocationCandidate, target time.Time) []domain.AllocationCandidate {
	var exact []domain.AllocationCandidate
	var closest []domain.AllocationCandidate
	var bestDiff time.Duration
	for _, c := range candidates {
		if c.StartDate.Equal(target) {
			exact = append(exact, c)
			continue
		}
		diff := c.StartDate.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case len(closest) == 0 || diff < bestDiff:
			bestDiff = diff
			closest = []domain.AllocationCandidate{c}
		case diff == bestDiff:
			closest = append(closest, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return closest
}

// cropChanges replaces an existing allocation's crop (and window) with a
// different candidate on the same field whose window overlaps the one
// being replaced, drawn from the pool.
func cropChanges(s domain.Solution, pool []domain.AllocationCandidate, horizon domain.Horizon) []Move {
	var moves []Move
	for _, a := range s.Allocations {
		for _, c := range pool {
			if c.Field.ID != a.Field.ID || c.Crop.ID == a.Crop.ID {
				continue
			}
			if c.CompletionDate.Before(a.StartDate) || c.StartDate.After(a.CompletionDate) {
				continue
			}
			replacement := domain.FromCandidate(c, uuid.NewString())
			delta := feasibility.Delta{
				RemoveIDs: []string{a.AllocationID},
				Add:       []domain.CropAllocation{replacement},
			}
			if feasibility.CheckIncremental(s, horizon, delta) == nil {
				moves = append(moves, Move{Kind: KindCropChange, Delta: delta})
			}
		}
	}
	return moves
}

// cropInserts adds a brand-new allocation from the pool without removing
// anything, filling an idle field window.
func cropInserts(s domain.Solution, pool []domain.AllocationCandidate, horizon domain.Horizon) []Move {
	var moves []Move
	for _, c := range pool {
		added := domain.FromCandidate(c, uuid.NewString())
		delta := feasibility.Delta{Add: []domain.CropAllocation{added}}
		if feasibility.CheckIncremental(s, horizon, delta) == nil {
			moves = append(moves, Move{Kind: KindCropInsert, Delta: delta})
		}
	}
	return moves
}

// cropRemoves drops an existing allocation entirely, freeing its field for
// the remainder of the horizon. Removal alone is always feasible (it can
// only relax invariants), so no feasibility check is needed.
func cropRemoves(s domain.Solution) []Move {
	var moves []Move
	for _, a := range s.Allocations {
		moves = append(moves, Move{
			Kind:  KindCropRemove,
			Delta: feasibility.Delta{RemoveIDs: []string{a.AllocationID}},
		})
	}
	return moves
}

// periodReplaces shifts an existing allocation to a different window of
// the same (field, crop) drawn from the pool, keeping the quantity level
// implied by its current area usage.
func periodReplaces(s domain.Solution, pool []domain.AllocationCandidate, horizon domain.Horizon) []Move {
	var moves []Move
	for _, a := range s.Allocations {
		for _, c := range pool {
			if c.Field.ID != a.Field.ID || c.Crop.ID != a.Crop.ID || c.StartDate.Equal(a.StartDate) {
				continue
			}
			if math.Abs(c.AreaUsedM2-a.AreaUsedM2) > 1e-9 {
				continue
			}
			replacement := domain.FromCandidate(c, uuid.NewString())
			delta := feasibility.Delta{
				RemoveIDs: []string{a.AllocationID},
				Add:       []domain.CropAllocation{replacement},
			}
			if feasibility.CheckIncremental(s, horizon, delta) == nil {
				moves = append(moves, Move{Kind: KindPeriodReplace, Delta: delta})
			}
		}
	}
	return moves
}

// quantityAdjusts scales an existing allocation's area usage by one of the
// configured multipliers, rounding down to a whole unit count and
// rejecting adjustments that would exceed the field's area or collapse to
// zero units.
func quantityAdjusts(s domain.Solution, horizon domain.Horizon, multipliers []float64) []Move {
	var moves []Move
	for _, a := range s.Allocations {
		for _, mult := range multipliers {
			targetArea := a.AreaUsedM2 * mult
			if targetArea <= 0 || targetArea > a.Field.AreaM2 {
				continue
			}
			qty := int(math.Floor(targetArea / a.Crop.AreaPerUnitM2))
			if qty <= 0 {
				continue
			}
			adjusted := a
			adjusted.AllocationID = uuid.NewString()
			adjusted.AreaUsedM2 = float64(qty) * a.Crop.AreaPerUnitM2
			adjusted.Quantity = qty
			adjusted.ExpectedRevenue = nil
			adjusted.Profit = nil

			delta := feasibility.Delta{
				RemoveIDs: []string{a.AllocationID},
				Add:       []domain.CropAllocation{adjusted},
			}
			if feasibility.CheckIncremental(s, horizon, delta) == nil {
				moves = append(moves, Move{Kind: KindQuantityAdjust, Delta: delta})
			}
		}
	}
	return moves
}
