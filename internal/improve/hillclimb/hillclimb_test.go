package hillclimb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/improve/hillclimb"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func horizon() domain.Horizon {
	return domain.Horizon{Start: day(2025, 1, 1), End: day(2025, 12, 31)}
}

func baseConfig() hillclimb.Config {
	return hillclimb.Config{
		MaxIterations:       50,
		MaxNoImprovement:    20,
		ImprovementRatio:    0,
		Horizon:             horizon(),
		PlanningStart:       day(2025, 1, 1),
		QuantityMultipliers: []float64{0.8, 1.2},
	}
}

func TestRun_InsertsProfitableCandidateFromEmptySolution(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	pool := []domain.AllocationCandidate{
		{Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 500, Quantity: 500},
	}

	result := hillclimb.Run(domain.Solution{}, pool, baseConfig())
	require.Len(t, result.Solution.Allocations, 1)
	assert.Greater(t, result.Solution.TotalProfit(), 0.0)
}

func TestRun_NoProfitableMoves_ReturnsInitialUnchanged(t *testing.T) {
	result := hillclimb.Run(domain.Solution{}, nil, baseConfig())
	assert.Empty(t, result.Solution.Allocations)
	assert.Equal(t, 0, result.Iterations)
}

func TestRun_RespectsMaxIterations(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 100000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	var pool []domain.AllocationCandidate
	for i := 0; i < 5; i++ {
		start := day(2025, 1, 1).AddDate(0, 0, i*20)
		pool = append(pool, domain.AllocationCandidate{
			Field: field, Crop: crop, StartDate: start, CompletionDate: start.AddDate(0, 0, 9),
			GrowthDays: 9, AreaUsedM2: 500, Quantity: 500,
		})
	}

	cfg := baseConfig()
	cfg.MaxIterations = 1
	result := hillclimb.Run(domain.Solution{}, pool, cfg)
	assert.LessOrEqual(t, result.Iterations, 1)
}
