package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/adjust"
	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/engine"
	"github.com/fieldplan/allocator/internal/phenology"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flatWeather(tMean float64, from, to time.Time) phenology.WeatherLookup {
	var records []domain.WeatherRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		t := tMean
		records = append(records, domain.WeatherRecord{Date: d, TempMean: &t})
	}
	return phenology.SliceLookup(records)
}

func baseRequest() engine.Request {
	field := domain.Field{ID: "f1", Name: "F1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", Name: "Tomato", AreaPerUnitM2: 1, RevenuePerArea: 100}
	stages := []domain.StageRequirement{
		{StageName: "s", RequiredGDD: 150, Thermal: domain.ThermalProfile{BaseTemperature: 10, OptimalMin: 20, OptimalMax: 28, HighStressThresh: 35}},
	}
	horizon := domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 5, 31)}

	cfg := domain.DefaultOptimizationConfig()
	cfg.EnableParallelCandidateGeneration = false

	return engine.Request{
		Fields:   []domain.Field{field},
		Crops:    []domain.Crop{crop},
		Profiles: map[string][]domain.StageRequirement{"c1": stages},
		Weather:  flatWeather(25, horizon.Start, horizon.End),
		Horizon:  horizon,
		Config:   cfg,
	}
}

func TestOptimize_RejectsEmptyFieldSet(t *testing.T) {
	req := baseRequest()
	req.Fields = nil
	_, err := engine.Optimize(req)
	require.Error(t, err)
}

func TestOptimize_RejectsHorizonOutOfOrder(t *testing.T) {
	req := baseRequest()
	req.Horizon.End = req.Horizon.Start.AddDate(0, 0, -1)
	_, err := engine.Optimize(req)
	require.Error(t, err)
}

func TestOptimize_RejectsUndefinedCropProfile(t *testing.T) {
	req := baseRequest()
	req.Profiles = map[string][]domain.StageRequirement{}
	_, err := engine.Optimize(req)
	require.Error(t, err)
}

func TestOptimize_RejectsWeatherNotCoveringHorizon(t *testing.T) {
	req := baseRequest()
	req.Weather = flatWeather(25, req.Horizon.Start, req.Horizon.Start.AddDate(0, 0, 5))
	_, err := engine.Optimize(req)
	require.Error(t, err)
}

func TestOptimize_HappyPath_ProducesFeasibleSolution(t *testing.T) {
	result, err := engine.Optimize(baseRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, result.OptimizationID)
	assert.Contains(t, result.AlgorithmUsed, "DP")
}

func TestOptimize_CandidateStarvation_ReturnsEmptySolutionNotError(t *testing.T) {
	req := baseRequest()
	req.Horizon = domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 4, 2)}
	req.Weather = flatWeather(25, req.Horizon.Start, req.Horizon.End)
	result, err := engine.Optimize(req)
	require.NoError(t, err)
	assert.Empty(t, result.Solution.Allocations)
	assert.NotEmpty(t, result.Diagnostic)
}

func TestAdjust_RemoveThenReoptimize(t *testing.T) {
	req := baseRequest()
	result, err := engine.Optimize(req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Solution.Allocations)

	adjustReq := engine.AdjustRequest{
		Request: req,
		Seed:    result.Solution,
		Instructions: []adjust.Instruction{
			{Kind: adjust.Remove, AllocationID: result.Solution.Allocations[0].AllocationID},
		},
	}
	adjustResult, err := engine.Adjust(adjustReq)
	require.NoError(t, err)
	assert.Len(t, adjustResult.Applied, 1)
	assert.Contains(t, adjustResult.AlgorithmUsed, "adjust+")
}
