// Package engine is the single synchronous entry point promised by §5:
// Optimize runs the full C3 → (C5 or C6) → (C8 or C9) pipeline, and
// Adjust layers C10 on top of it for move/remove requests against an
// existing solution. Both fail the call only for the three §7
// call-failing categories; everything else is reported in the result.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldplan/allocator/internal/adjust"
	"github.com/fieldplan/allocator/internal/candidate"
	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/feasibility"
	"github.com/fieldplan/allocator/internal/improve/alns"
	"github.com/fieldplan/allocator/internal/improve/hillclimb"
	"github.com/fieldplan/allocator/internal/metrics"
	"github.com/fieldplan/allocator/internal/phenology"
	"github.com/fieldplan/allocator/internal/schedule/dp"
	"github.com/fieldplan/allocator/internal/schedule/greedy"
	"github.com/fieldplan/allocator/internal/apperr"
)

// recorder is process-wide: Prometheus collectors must only be registered
// once, while Optimize/Adjust are called repeatedly over the process's
// lifetime.
var recorder = metrics.NewRecorder()

// Request is the single structured input to Optimize, per §6.1.
type Request struct {
	Fields           []domain.Field
	Crops            []domain.Crop
	Profiles         map[string][]domain.StageRequirement
	Weather          phenology.WeatherLookup
	InteractionRules []domain.InteractionRule
	Horizon          domain.Horizon
	Config           domain.OptimizationConfig

	// Seed, when non-empty, pre-populates the schedule before C5/C6 run
	// (used by Adjust to re-optimize a residual solution).
	Seed domain.Solution

	// Cache memoizes phenology.Evaluate results across calls. Nil falls
	// back to candidate.Generate's own per-call in-process cache.
	Cache candidate.PhenologyCache
}

// Result is the output described in §6.2.
type Result struct {
	OptimizationID string
	AlgorithmUsed  string
	Solution       domain.Solution
	Diagnostic     string
}

// AdjustRequest wraps a Request with the seed solution and the
// instructions to apply before re-optimizing, per §6.3.
type AdjustRequest struct {
	Request
	Seed         domain.Solution
	Instructions []adjust.Instruction
}

// AdjustResult extends Result with the applied/rejected instruction lists.
type AdjustResult struct {
	Result
	Applied  []adjust.Instruction
	Rejected []adjust.Rejected
}

// Optimize implements §6's core call. Input validation and data
// sufficiency failures, and a final solution that fails the feasibility
// check (internal invariant), return an error (§7); everything else is
// resolved into the result's diagnostic field.
func Optimize(req Request) (Result, error) {
	start := time.Now()
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	candidates := candidate.Generate(candidate.Input{
		Fields:   req.Fields,
		Crops:    req.Crops,
		Profiles: req.Profiles,
		Weather:  req.Weather,
		Horizon:  req.Horizon,
		Config:   req.Config,
		Cache:    req.Cache,
	})
	candidates = append(candidates, seedAsCandidates(req.Seed)...)
	recorder.ObserveCandidatesGenerated(len(candidates))

	if len(candidates) == 0 {
		return Result{
			OptimizationID: uuid.NewString(),
			AlgorithmUsed:  string(req.Config.Algorithm),
			Solution:       domain.Solution{},
			Diagnostic:     "no candidates generated: empty solution returned",
		}, nil
	}

	var scheduled domain.Solution
	switch req.Config.Algorithm {
	case domain.AlgorithmGreedy:
		scheduled = greedy.Schedule(candidates, req.Horizon, req.Horizon.Start, req.InteractionRules)
	default:
		scheduled = dp.Schedule(candidates, req.Horizon.Start, req.InteractionRules)
	}

	algorithmUsed := string(req.Config.Algorithm)
	final := scheduled

	deadline := time.Time{}
	if req.Config.DeadlineSeconds > 0 {
		deadline = time.Now().Add(time.Duration(req.Config.DeadlineSeconds * float64(time.Second)))
	}

	if req.Config.EnableALNS {
		result := alns.Run(scheduled, alns.Config{
			Iterations:  req.Config.ALNSIterations,
			RemovalRate: req.Config.ALNSRemovalRate,
			Deadline:    deadline,
			Context: alns.Context{
				Pool:          candidates,
				Horizon:       req.Horizon,
				PlanningStart: req.Horizon.Start,
				Rules:         req.InteractionRules,
			},
		}, alns.NewSeededRNG(req.Config.RandomSeed))
		final = result.Solution
		algorithmUsed += "+ALNS"
		recorder.ObserveALNSIterations(result.Iterations)
	} else if req.Config.EnableLocalSearch {
		result := hillclimb.Run(scheduled, candidates, hillclimb.Config{
			MaxIterations:       req.Config.MaxLocalSearchIterations,
			MaxNoImprovement:    req.Config.MaxNoImprovement,
			ImprovementRatio:    req.Config.ImprovementThresholdRatio,
			Horizon:             req.Horizon,
			PlanningStart:       req.Horizon.Start,
			InteractionRules:    req.InteractionRules,
			QuantityMultipliers: req.Config.QuantityAdjustmentMultipliers,
			Deadline:            deadline,
		})
		final = result.Solution
		algorithmUsed += "+HillClimbing"
		recorder.ObserveLocalSearchIterations(result.Iterations)
	}

	if v := feasibility.Check(final, req.Horizon); v != nil {
		recorder.IncInvariantViolation()
		return Result{}, apperr.New(apperr.ErrCodeInternalInvariant, fmt.Sprintf("scheduler produced an infeasible solution: %s", v.Error()))
	}

	recorder.ObserveOptimizeLatency(algorithmUsed, time.Since(start))
	return Result{
		OptimizationID: uuid.NewString(),
		AlgorithmUsed:  algorithmUsed,
		Solution:       final,
	}, nil
}

// Adjust implements §4.10/§6.3: apply the instructions, then re-invoke
// Optimize with the residual solution seeded back in.
func Adjust(req AdjustRequest) (AdjustResult, error) {
	fieldsByID := map[string]domain.Field{}
	for _, f := range req.Fields {
		fieldsByID[f.ID] = f
	}

	outcome := adjust.Apply(req.Seed, req.Instructions, adjust.Dependencies{
		Fields:   fieldsByID,
		Profiles: req.Profiles,
		Weather:  req.Weather,
		Horizon:  req.Horizon,
		GDDModel: req.Config.GDDModel,
	})

	inner := req.Request
	inner.Seed = outcome.Residual

	result, err := Optimize(inner)
	if err != nil {
		return AdjustResult{}, err
	}
	result.AlgorithmUsed = "adjust+" + result.AlgorithmUsed

	return AdjustResult{
		Result:   result,
		Applied:  outcome.Applied,
		Rejected: outcome.Rejected,
	}, nil
}

// seedAsCandidates lets the DP/greedy schedulers treat a seed solution's
// allocations as fixed, always-available picks: re-expressing each as a
// single-quantity-level candidate guarantees it survives scheduling
// unless a higher-profit conflicting candidate displaces it.
func seedAsCandidates(seed domain.Solution) []domain.AllocationCandidate {
	var out []domain.AllocationCandidate
	for _, a := range seed.Allocations {
		out = append(out, domain.AllocationCandidate{
			Field:          a.Field,
			Crop:           a.Crop,
			StartDate:      a.StartDate,
			CompletionDate: a.CompletionDate,
			GrowthDays:     a.GrowthDays,
			AccumulatedGDD: a.AccumulatedGDD,
			AreaUsedM2:     a.AreaUsedM2,
			Quantity:       a.Quantity,
		})
	}
	return out
}

// validateRequest implements §7's input-validation and data-insufficiency
// checks that must fail the call before any optimization runs.
func validateRequest(req Request) error {
	if len(req.Fields) == 0 {
		return apperr.New(apperr.ErrCodeInputValidation, "request must include at least one field")
	}
	if len(req.Crops) == 0 {
		return apperr.New(apperr.ErrCodeInputValidation, "request must include at least one crop")
	}
	if req.Horizon.End.Before(req.Horizon.Start) {
		return apperr.New(apperr.ErrCodeInputValidation, "planning_end must not precede planning_start")
	}

	seenFields := map[string]bool{}
	for _, f := range req.Fields {
		if seenFields[f.ID] {
			return apperr.New(apperr.ErrCodeInputValidation, fmt.Sprintf("duplicate field id: %s", f.ID))
		}
		seenFields[f.ID] = true
	}

	for _, c := range req.Crops {
		stages, ok := req.Profiles[c.ID]
		if !ok {
			return apperr.New(apperr.ErrCodeInputValidation, fmt.Sprintf("crop references an undefined profile: %s", c.ID))
		}
		if len(stages) == 0 {
			return apperr.New(apperr.ErrCodeDataInsufficiency, fmt.Sprintf("crop profile has no stages: %s", c.ID))
		}
		for _, st := range stages {
			if _, ok := st.Thermal.EffectiveMaxTemperature(); !ok {
				return apperr.New(apperr.ErrCodeDataInsufficiency, fmt.Sprintf("stage has neither max_temperature nor high_stress_threshold: %s", c.ID+"/"+st.StageName))
			}
		}
	}

	if req.Weather == nil {
		return apperr.New(apperr.ErrCodeDataInsufficiency, "weather lookup must be provided")
	}
	if _, ok := req.Weather(req.Horizon.Start); !ok {
		return apperr.New(apperr.ErrCodeDataInsufficiency, fmt.Sprintf("weather series does not cover the planning horizon: %s", req.Horizon.Start.String()))
	}
	if _, ok := req.Weather(req.Horizon.End); !ok {
		return apperr.New(apperr.ErrCodeDataInsufficiency, fmt.Sprintf("weather series does not cover the planning horizon: %s", req.Horizon.End.String()))
	}

	return nil
}
