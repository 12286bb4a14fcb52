package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeRequest_ToEngineRequest_BuildsWeatherLookup(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	temp := 18.0

	req := OptimizeRequest{
		Fields: []FieldInput{{ID: "f1", AreaM2: 100, DailyFixedCost: 1}},
		Crops:  []CropInput{{ID: "c1", AreaPerUnitM2: 1, RevenuePerArea: 2}},
		Profiles: map[string][]StageRequirementInput{
			"c1": {{StageName: "vegetative", RequiredGDD: 100, Thermal: ThermalProfileInput{HighStressThresh: 30}}},
		},
		Weather: []WeatherRecordInput{{Date: start, TempMean: &temp}},
		Horizon: HorizonInput{Start: start, End: start.AddDate(0, 0, 10)},
	}

	engineReq := req.ToEngineRequest()
	require.NotNil(t, engineReq.Weather)

	record, ok := engineReq.Weather(start)
	require.True(t, ok)
	assert.Equal(t, temp, *record.TempMean)

	_, ok = engineReq.Weather(start.AddDate(0, 0, 100))
	assert.False(t, ok)
}

func TestOptimizeRequest_ToEngineRequest_DefaultsConfigWhenUnset(t *testing.T) {
	req := OptimizeRequest{}
	engineReq := req.ToEngineRequest()
	assert.Equal(t, "DP", string(engineReq.Config.Algorithm))
}

func TestAdjustRequest_SeedSolution_ResolvesFieldsAndCrops(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	req := AdjustRequest{
		OptimizeRequest: OptimizeRequest{
			Fields: []FieldInput{{ID: "f1", AreaM2: 100}},
			Crops:  []CropInput{{ID: "c1", AreaPerUnitM2: 1}},
		},
		Seed: []AllocationOutput{
			{AllocationID: "a1", FieldID: "f1", CropID: "c1", StartDate: start, CompletionDate: start.AddDate(0, 0, 5)},
		},
	}

	sol := req.seedSolution()
	require.Len(t, sol.Allocations, 1)
	assert.Equal(t, "f1", sol.Allocations[0].Field.ID)
	assert.Equal(t, "c1", sol.Allocations[0].Crop.ID)
}
