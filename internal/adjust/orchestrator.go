// Package adjust implements C10: applying a batch of MOVE/REMOVE
// instructions to an existing solution and re-optimizing the residual
// with those allocations seeded back in.
package adjust

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/phenology"
)

// InstructionKind enumerates the two supported adjustment operations.
type InstructionKind string

const (
	Move   InstructionKind = "MOVE"
	Remove InstructionKind = "REMOVE"
)

// Instruction is one requested change to an existing solution.
type Instruction struct {
	Kind         InstructionKind
	AllocationID string

	// MOVE-only fields.
	ToFieldID   string
	ToStartDate time.Time
	ToArea      *float64
}

// RejectReason enumerates the taxonomy of why an instruction could not be
// applied — never a Go error, since a rejected instruction is a routine,
// reportable outcome rather than a call failure (§7).
type RejectReason string

const (
	ReasonAllocationNotFound RejectReason = "allocation_not_found"
	ReasonTargetFieldNotFound RejectReason = "target_field_not_found"
	ReasonPhenologyFailed    RejectReason = "phenology_failed"
	ReasonOutOfHorizon       RejectReason = "out_of_horizon"
	ReasonInsufficientArea   RejectReason = "insufficient_area"
	ReasonFallowViolation    RejectReason = "fallow_violation"
)

// Rejected pairs a rejected instruction with why it failed.
type Rejected struct {
	Instruction Instruction
	Reason      RejectReason
}

// Outcome is the validated-and-applied result of one adjustment batch,
// ready to be handed to the scheduler as a seed.
type Outcome struct {
	Residual domain.Solution
	Applied  []Instruction
	Rejected []Rejected
}

// Fields and Profiles give Apply enough context to validate MOVE targets
// and re-derive a moved allocation's growth window.
type Dependencies struct {
	Fields   map[string]domain.Field
	Profiles map[string][]domain.StageRequirement
	Weather  phenology.WeatherLookup
	Horizon  domain.Horizon
	GDDModel domain.GDDModel
}

// Apply implements §4.10 steps 1-3: validate and apply each instruction in
// order against the running residual solution, collecting applied and
// rejected instructions as it goes.
func Apply(s domain.Solution, instructions []Instruction, deps Dependencies) Outcome {
	residual := s.Clone()
	var applied []Instruction
	var rejected []Rejected

	for _, instr := range instructions {
		idx := residual.IndexOf(instr.AllocationID)
		if idx < 0 {
			rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonAllocationNotFound})
			continue
		}

		switch instr.Kind {
		case Remove:
			residual.Allocations = append(residual.Allocations[:idx], residual.Allocations[idx+1:]...)
			applied = append(applied, instr)

		case Move:
			existing := residual.Allocations[idx]
			targetField, ok := deps.Fields[instr.ToFieldID]
			if !ok {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonTargetFieldNotFound})
				continue
			}

			area := existing.AreaUsedM2
			if instr.ToArea != nil {
				area = *instr.ToArea
			}
			if area > targetField.AreaM2 {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonInsufficientArea})
				continue
			}
			quantity := int(math.Floor(area / existing.Crop.AreaPerUnitM2))
			if quantity < 1 {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonInsufficientArea})
				continue
			}

			stages := deps.Profiles[existing.Crop.ID]
			result, err := phenology.Evaluate(stages, instr.ToStartDate, deps.Horizon.End, deps.Weather, deps.GDDModel)
			if err != nil {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonPhenologyFailed})
				continue
			}

			if !deps.Horizon.Contains(instr.ToStartDate, result.CompletionDate) {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonOutOfHorizon})
				continue
			}

			moved := domain.CropAllocation{
				AllocationID:   uuid.NewString(),
				Field:          targetField,
				Crop:           existing.Crop,
				StartDate:      instr.ToStartDate,
				CompletionDate: result.CompletionDate,
				GrowthDays:     result.GrowthDays,
				AccumulatedGDD: result.AccumulatedGDD,
				AreaUsedM2:     area,
				Quantity:       quantity,
				TotalCost:      float64(result.GrowthDays) * targetField.DailyFixedCost,
			}

			candidateSolution := residual
			candidateSolution.Allocations = append(append([]domain.CropAllocation{}, residual.Allocations[:idx]...), residual.Allocations[idx+1:]...)
			if conflicts(candidateSolution, moved) {
				rejected = append(rejected, Rejected{Instruction: instr, Reason: ReasonFallowViolation})
				continue
			}

			residual.Allocations = append(candidateSolution.Allocations, moved)
			applied = append(applied, instr)
		}
	}

	return Outcome{Residual: residual, Applied: applied, Rejected: rejected}
}

func conflicts(s domain.Solution, candidate domain.CropAllocation) bool {
	for _, a := range s.Allocations {
		if a.Overlaps(candidate) {
			return true
		}
	}
	return false
}
