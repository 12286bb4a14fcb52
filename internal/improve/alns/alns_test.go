package alns_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/improve/alns"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func horizon() domain.Horizon {
	return domain.Horizon{Start: day(2025, 1, 1), End: day(2025, 12, 31)}
}

func fixedRNG() alns.RNG { return alns.NewSeededRNG(42) }

func TestRun_NeverReturnsWorseThanInitial(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}

	revenue := 900.0
	profit := 800.0
	initial := domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9, TotalCost: 9, ExpectedRevenue: &revenue, Profit: &profit},
	}}

	pool := []domain.AllocationCandidate{
		{Field: field, Crop: crop, StartDate: day(2025, 2, 1), CompletionDate: day(2025, 2, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
	}

	cfg := alns.Config{
		Iterations:  50,
		RemovalRate: 0.5,
		Context: alns.Context{
			Pool:          pool,
			Horizon:       horizon(),
			PlanningStart: day(2025, 1, 1),
		},
	}

	result := alns.Run(initial, cfg, fixedRNG())
	assert.GreaterOrEqual(t, result.Solution.TotalProfit(), initial.TotalProfit())
}

func TestRun_DeterministicGivenSameSeed(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}

	initial := domain.Solution{}
	pool := []domain.AllocationCandidate{
		{Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
		{Field: field, Crop: crop, StartDate: day(2025, 2, 1), CompletionDate: day(2025, 2, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
	}
	cfg := alns.Config{
		Iterations:  20,
		RemovalRate: 0.5,
		Context: alns.Context{
			Pool:          pool,
			Horizon:       horizon(),
			PlanningStart: day(2025, 1, 1),
		},
	}

	r1 := alns.Run(initial, cfg, alns.NewSeededRNG(7))
	r2 := alns.Run(initial, cfg, alns.NewSeededRNG(7))
	assert.Equal(t, r1.Solution.TotalProfit(), r2.Solution.TotalProfit())
	assert.Equal(t, len(r1.Solution.Allocations), len(r2.Solution.Allocations))
}

func TestRun_RespectsDeadline(t *testing.T) {
	cfg := alns.Config{
		Iterations: 1000000,
		RemovalRate: 0.5,
		Deadline:    time.Now().Add(-time.Second),
		Context:     alns.Context{Horizon: horizon(), PlanningStart: day(2025, 1, 1)},
	}
	result := alns.Run(domain.Solution{}, cfg, fixedRNG())
	assert.Equal(t, 0, result.Iterations)
}

func TestGreedyInsert_FillsFeasibleGapsFromPool(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	removed := []domain.CropAllocation{
		{AllocationID: "gone", Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
	}
	ctx := alns.Context{
		Pool: []domain.AllocationCandidate{
			{Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
		},
		Horizon:       horizon(),
		PlanningStart: day(2025, 1, 1),
	}
	out := alns.GreedyInsert(domain.Solution{}, removed, ctx, fixedRNG())
	require.Len(t, out.Allocations, 1)
	assert.Equal(t, "c1", out.Allocations[0].Crop.ID)
}
