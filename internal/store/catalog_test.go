package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
)

func TestFieldRecord_RoundTripsThroughDomain(t *testing.T) {
	field := domain.Field{ID: "f1", Name: "North Plot", AreaM2: 2500, DailyFixedCost: 3.5, FallowDays: 14}

	rec := FieldRecordFromDomain(field)
	require.NoError(t, rec.Validate())
	assert.Equal(t, field, rec.ToDomain())
}

func TestFieldRecord_Validate_RejectsNonPositiveArea(t *testing.T) {
	rec := FieldRecordFromDomain(domain.Field{ID: "f1", AreaM2: 0})
	assert.ErrorIs(t, rec.Validate(), ErrInvalidFieldArea)
}

func TestCropRecord_RoundTripsGroupsThroughStringSlice(t *testing.T) {
	maxRevenue := 5000.0
	crop := domain.Crop{
		ID:             "c1",
		Name:           "Tomato",
		AreaPerUnitM2:  0.5,
		RevenuePerArea: 120,
		MaxRevenue:     &maxRevenue,
		Groups:         []string{"Solanaceae", "Nightshade"},
	}

	rec := CropRecordFromDomain(crop)
	assert.Equal(t, crop, rec.ToDomain())
}

func TestStageRequirementRecord_RoundTripsThermalProfile(t *testing.T) {
	harvest := 800.0
	stage := domain.StageRequirement{
		StageName: "flowering",
		Order:     2,
		Thermal: domain.ThermalProfile{
			BaseTemperature:  10,
			OptimalMin:       20,
			OptimalMax:       28,
			HighStressThresh: 35,
			MaxTemperature:   40,
		},
		RequiredGDD:     450,
		HarvestStartGDD: &harvest,
	}

	rec := StageRequirementRecordFromDomain("c1", stage)
	assert.Equal(t, "c1", rec.CropID)
	assert.Equal(t, stage, rec.ToDomain())
}

func TestInteractionRuleRecord_RoundTripsThroughDomain(t *testing.T) {
	rule := domain.InteractionRule{
		RuleType:      domain.RuleBeneficialRotation,
		SourceGroup:   "Legume",
		TargetGroup:   "Brassica",
		ImpactRatio:   1.15,
		IsDirectional: true,
	}

	rec := InteractionRuleRecordFromDomain(rule)
	assert.Equal(t, rule, rec.ToDomain())
}

func TestStringSlice_ScanHandlesNilAndBytes(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.Scan(nil))
	assert.Nil(t, []string(s))

	require.NoError(t, s.Scan([]byte("a,b,c")))
	assert.Equal(t, StringSlice{"a", "b", "c"}, s)
}
