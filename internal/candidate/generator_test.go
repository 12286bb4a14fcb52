package candidate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/candidate"
	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/phenology"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flatRecords(tMean float64, from, to time.Time) []domain.WeatherRecord {
	var records []domain.WeatherRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		t := tMean
		records = append(records, domain.WeatherRecord{Date: d, TempMean: &t})
	}
	return records
}

func baseConfig() domain.OptimizationConfig {
	cfg := domain.DefaultOptimizationConfig()
	cfg.EnableParallelCandidateGeneration = false
	cfg.EnableCandidateFiltering = false
	return cfg
}

func TestGenerate_EmitsWholeUnitCandidatesWithinFieldArea(t *testing.T) {
	field := domain.Field{ID: "f1", Name: "F1", AreaM2: 1000, DailyFixedCost: 1, FallowDays: 0}
	crop := domain.Crop{ID: "c1", Name: "Tomato", AreaPerUnitM2: 0.5, RevenuePerArea: 50}
	stages := []domain.StageRequirement{
		{StageName: "s", RequiredGDD: 150, Thermal: domain.ThermalProfile{BaseTemperature: 10, OptimalMin: 20, OptimalMax: 28, HighStressThresh: 35}},
	}
	horizon := domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 4, 20)}
	weather := phenology.SliceLookup(flatRecords(25, horizon.Start, horizon.End))

	cfg := baseConfig()
	out := candidate.Generate(candidate.Input{
		Fields:   []domain.Field{field},
		Crops:    []domain.Crop{crop},
		Profiles: map[string][]domain.StageRequirement{"c1": stages},
		Weather:  weather,
		Horizon:  horizon,
		Config:   cfg,
	})

	require.NotEmpty(t, out)
	for _, c := range out {
		assert.Equal(t, "f1", c.Field.ID)
		assert.Equal(t, "c1", c.Crop.ID)
		assert.Greater(t, c.Quantity, 0)
		assert.LessOrEqual(t, c.AreaUsedM2, field.AreaM2)
	}
}

func TestGenerate_FilteringDropsNonPositiveBaseline(t *testing.T) {
	field := domain.Field{ID: "f1", Name: "F1", AreaM2: 1000, DailyFixedCost: 5000, FallowDays: 0}
	crop := domain.Crop{ID: "c1", Name: "Tomato", AreaPerUnitM2: 0.5, RevenuePerArea: 50}
	stages := []domain.StageRequirement{
		{StageName: "s", RequiredGDD: 1500, Thermal: domain.ThermalProfile{BaseTemperature: 10, OptimalMin: 20, OptimalMax: 28, HighStressThresh: 35}},
	}
	horizon := domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 10, 31)}
	weather := phenology.SliceLookup(flatRecords(25, horizon.Start, horizon.End))

	cfg := baseConfig()
	cfg.EnableCandidateFiltering = true
	out := candidate.Generate(candidate.Input{
		Fields:   []domain.Field{field},
		Crops:    []domain.Crop{crop},
		Profiles: map[string][]domain.StageRequirement{"c1": stages},
		Weather:  weather,
		Horizon:  horizon,
		Config:   cfg,
	})
	assert.Empty(t, out)
}

func TestGenerate_ParallelMatchesSerial(t *testing.T) {
	fields := []domain.Field{
		{ID: "f1", Name: "F1", AreaM2: 1000, DailyFixedCost: 1, FallowDays: 0},
		{ID: "f2", Name: "F2", AreaM2: 500, DailyFixedCost: 1, FallowDays: 0},
	}
	crops := []domain.Crop{
		{ID: "c1", Name: "Tomato", AreaPerUnitM2: 0.5, RevenuePerArea: 50},
		{ID: "c2", Name: "Lettuce", AreaPerUnitM2: 0.2, RevenuePerArea: 30},
	}
	stages := []domain.StageRequirement{
		{StageName: "s", RequiredGDD: 150, Thermal: domain.ThermalProfile{BaseTemperature: 10, OptimalMin: 20, OptimalMax: 28, HighStressThresh: 35}},
	}
	horizon := domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 5, 10)}
	weather := phenology.SliceLookup(flatRecords(25, horizon.Start, horizon.End))
	profiles := map[string][]domain.StageRequirement{"c1": stages, "c2": stages}

	serialCfg := baseConfig()
	parallelCfg := baseConfig()
	parallelCfg.EnableParallelCandidateGeneration = true

	serial := candidate.Generate(candidate.Input{Fields: fields, Crops: crops, Profiles: profiles, Weather: weather, Horizon: horizon, Config: serialCfg})
	parallel := candidate.Generate(candidate.Input{Fields: fields, Crops: crops, Profiles: profiles, Weather: weather, Horizon: horizon, Config: parallelCfg})

	assert.Equal(t, len(serial), len(parallel))
}

func TestGenerate_NoProfile_EmitsNothing(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 0.5, RevenuePerArea: 50}
	horizon := domain.Horizon{Start: day(2025, 4, 1), End: day(2025, 4, 10)}
	out := candidate.Generate(candidate.Input{
		Fields:   []domain.Field{field},
		Crops:    []domain.Crop{crop},
		Profiles: map[string][]domain.StageRequirement{},
		Weather:  phenology.SliceLookup(nil),
		Horizon:  horizon,
		Config:   baseConfig(),
	})
	assert.Empty(t, out)
}
