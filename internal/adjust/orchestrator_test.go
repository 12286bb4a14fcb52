package adjust_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/adjust"
	"github.com/fieldplan/allocator/internal/domain"
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

func deps() adjust.Dependencies {
	fieldA := domain.Field{ID: "fieldA", AreaM2: 1000, DailyFixedCost: 1}
	fieldB := domain.Field{ID: "fieldB", AreaM2: 5, DailyFixedCost: 1}
	horizon := domain.Horizon{Start: day(2025, 1, 1), End: day(2025, 12, 31)}
	stages := []domain.StageRequirement{
		{StageName: "s", RequiredGDD: 100, Thermal: domain.ThermalProfile{BaseTemperature: 10, OptimalMin: 20, OptimalMax: 28, HighStressThresh: 35}},
	}
	return adjust.Dependencies{
		Fields:   map[string]domain.Field{"fieldA": fieldA, "fieldB": fieldB},
		Profiles: map[string][]domain.StageRequirement{"c1": stages},
		Weather:  flatWeather(25, horizon.Start, horizon.End),
		Horizon:  horizon,
		GDDModel: domain.GDDModified,
	}
}

func baseSolution() domain.Solution {
	field := domain.Field{ID: "fieldA", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	return domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 9, Quantity: 9},
	}}
}

func TestApply_Remove_DropsAllocation(t *testing.T) {
	outcome := adjust.Apply(baseSolution(), []adjust.Instruction{
		{Kind: adjust.Remove, AllocationID: "a1"},
	}, deps())
	assert.Empty(t, outcome.Residual.Allocations)
	assert.Len(t, outcome.Applied, 1)
	assert.Empty(t, outcome.Rejected)
}

func TestApply_Remove_UnknownAllocation_Rejected(t *testing.T) {
	outcome := adjust.Apply(baseSolution(), []adjust.Instruction{
		{Kind: adjust.Remove, AllocationID: "does-not-exist"},
	}, deps())
	require.Len(t, outcome.Rejected, 1)
	assert.Equal(t, adjust.ReasonAllocationNotFound, outcome.Rejected[0].Reason)
}

func TestApply_Move_ToUnknownField_Rejected(t *testing.T) {
	outcome := adjust.Apply(baseSolution(), []adjust.Instruction{
		{Kind: adjust.Move, AllocationID: "a1", ToFieldID: "nope", ToStartDate: day(2025, 2, 1)},
	}, deps())
	require.Len(t, outcome.Rejected, 1)
	assert.Equal(t, adjust.ReasonTargetFieldNotFound, outcome.Rejected[0].Reason)
}

func TestApply_Move_AreaExceedsTargetField_Rejected(t *testing.T) {
	area := 500.0
	outcome := adjust.Apply(baseSolution(), []adjust.Instruction{
		{Kind: adjust.Move, AllocationID: "a1", ToFieldID: "fieldB", ToStartDate: day(2025, 2, 1), ToArea: &area},
	}, deps())
	require.Len(t, outcome.Rejected, 1)
	assert.Equal(t, adjust.ReasonInsufficientArea, outcome.Rejected[0].Reason)
}

func TestApply_Move_Succeeds_RePricesWindow(t *testing.T) {
	outcome := adjust.Apply(baseSolution(), []adjust.Instruction{
		{Kind: adjust.Move, AllocationID: "a1", ToFieldID: "fieldA", ToStartDate: day(2025, 3, 1)},
	}, deps())
	require.Len(t, outcome.Applied, 1)
	require.Len(t, outcome.Residual.Allocations, 1)
	assert.True(t, outcome.Residual.Allocations[0].StartDate.Equal(day(2025, 3, 1)))
}
