package neighborhood_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/neighborhood"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func horizon() domain.Horizon {
	return domain.Horizon{Start: day(2025, 1, 1), End: day(2025, 12, 31)}
}

func TestGenerate_CropRemove_AlwaysOffered(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	s := domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 100, Quantity: 100},
	}}

	moves := neighborhood.Generate(s, nil, horizon(), nil)
	found := false
	for _, m := range moves {
		if m.Kind == neighborhood.KindCropRemove {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerate_CropInsert_FromPool(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	pool := []domain.AllocationCandidate{
		{Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 100, Quantity: 100},
	}

	moves := neighborhood.Generate(domain.Solution{}, pool, horizon(), nil)
	assert.NotEmpty(t, moves)
	assert.Equal(t, neighborhood.KindCropInsert, moves[0].Kind)
}

func TestGenerate_FieldSwap_RejectsAreaMismatch(t *testing.T) {
	small := domain.Field{ID: "small", AreaM2: 10, DailyFixedCost: 1}
	big := domain.Field{ID: "big", AreaM2: 1000, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}

	s := domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Field: small, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 5, Quantity: 5},
		{AllocationID: "a2", Field: big, Crop: crop, StartDate: day(2025, 2, 1), CompletionDate: day(2025, 2, 10), GrowthDays: 9, AreaUsedM2: 500, Quantity: 500},
	}}

	moves := neighborhood.Generate(s, nil, horizon(), nil)
	for _, m := range moves {
		assert.NotEqual(t, neighborhood.KindFieldSwap, m.Kind, "a 500 m2 allocation cannot fit the 10 m2 field")
	}
}

func TestGenerate_QuantityAdjust_SkipsMultiplierOverFieldArea(t *testing.T) {
	field := domain.Field{ID: "f1", AreaM2: 100, DailyFixedCost: 1}
	crop := domain.Crop{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 100}
	s := domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Field: field, Crop: crop, StartDate: day(2025, 1, 1), CompletionDate: day(2025, 1, 10), GrowthDays: 9, AreaUsedM2: 50, Quantity: 50},
	}}

	moves := neighborhood.Generate(s, nil, horizon(), []float64{0.5, 3.0})
	sawScaleDown := false
	for _, m := range moves {
		if m.Kind == neighborhood.KindQuantityAdjust {
			sawScaleDown = true
			assert.LessOrEqual(t, m.Delta.Add[0].AreaUsedM2, field.AreaM2)
		}
	}
	assert.True(t, sawScaleDown)
}
