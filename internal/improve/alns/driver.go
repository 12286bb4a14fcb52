package alns

import (
	"math"
	"time"

	"github.com/fieldplan/allocator/internal/domain"
)

// Config parameterizes one ALNS run, per §4.9.
type Config struct {
	Iterations   int
	RemovalRate  float64
	CoolingRate  float64 // default 0.9995
	Deadline     time.Time
	Context      Context
}

// Result reports the best solution ALNS found and how far it got.
type Result struct {
	Solution   domain.Solution
	Iterations int
}

// reward scores applied to operator weights on acceptance (§4.9 step 5).
const (
	rewardNewBest        = 1.0
	rewardBetterThanCurr = 0.6
	rewardAcceptedWorse  = 0.2
	weightDecay          = 0.8 // lambda: weight <- lambda*weight + (1-lambda)*score
)

type operatorSet struct {
	destroys       []DestroyFunc
	destroyWeights []float64
	repairs        []RepairFunc
	repairWeights  []float64
}

func newOperatorSet() operatorSet {
	return operatorSet{
		destroys:       []DestroyFunc{RandomRemoval, WorstRemoval, RelatedRemoval, FieldSliceRemoval, TimeSliceRemoval},
		destroyWeights: []float64{1, 1, 1, 1, 1},
		repairs:        []RepairFunc{GreedyInsert, RegretInsert},
		repairWeights:  []float64{1, 1},
	}
}

// Run implements §4.9's iteration loop: roulette-wheel operator selection,
// destroy-then-repair, simulated-annealing acceptance, adaptive operator
// weight updates, and multiplicative cooling. Returns the best-known
// solution found, tracked separately from the accepted/current one.
func Run(initial domain.Solution, cfg Config, rng RNG) Result {
	if cfg.CoolingRate <= 0 {
		cfg.CoolingRate = 0.9995
	}

	ops := newOperatorSet()
	current := initial.Clone()
	best := initial.Clone()
	bestProfit := best.TotalProfit()

	temperature := 0.05 * math.Abs(current.TotalProfit())
	if temperature <= 0 {
		temperature = 1.0
	}

	iterations := 0
	for iterations < cfg.Iterations {
		if !cfg.Deadline.IsZero() && time.Now().After(cfg.Deadline) {
			break
		}
		iterations++

		dIdx := rouletteSelect(ops.destroyWeights, rng)
		rIdx := rouletteSelect(ops.repairWeights, rng)

		removed, residual := ops.destroys[dIdx](current, cfg.RemovalRate, rng)
		candidate := ops.repairs[rIdx](residual, removed, cfg.Context, rng)
		candidate = priceSolution(candidate, cfg.Context)

		currentProfit := current.TotalProfit()
		candidateProfit := candidate.TotalProfit()

		accept := candidateProfit > currentProfit
		if !accept && temperature > 0 {
			prob := math.Exp((candidateProfit - currentProfit) / temperature)
			accept = prob > rouletteProbability(rng)
		}

		score := 0.0
		if accept {
			current = candidate
			score = rewardAcceptedWorse
			if candidateProfit > currentProfit {
				score = rewardBetterThanCurr
			}
			if candidateProfit > bestProfit {
				best = candidate.Clone()
				bestProfit = candidateProfit
				score = rewardNewBest
			}
		}

		ops.destroyWeights[dIdx] = weightDecay*ops.destroyWeights[dIdx] + (1-weightDecay)*score
		ops.repairWeights[rIdx] = weightDecay*ops.repairWeights[rIdx] + (1-weightDecay)*score

		temperature *= cfg.CoolingRate
	}

	return Result{Solution: best, Iterations: iterations}
}

// rouletteSelect picks an index proportional to weights.
func rouletteSelect(weights []float64, rng RNG) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	target := rouletteProbability(rng) * total
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if target <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// rouletteProbability derives a [0,1) float from the RNG's 64-bit stream.
func rouletteProbability(rng RNG) float64 {
	return float64(rng.NextU64()%1_000_000) / 1_000_000.0
}
