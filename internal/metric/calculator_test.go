package metric_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/metric"
)

func mkField() domain.Field {
	return domain.Field{ID: "f1", Name: "North Field", AreaM2: 1000, DailyFixedCost: 100, FallowDays: 28}
}

func mkCrop(maxRevenue *float64, groups ...string) domain.Crop {
	return domain.Crop{ID: "c1", Name: "Tomato", AreaPerUnitM2: 0.5, RevenuePerArea: 50, MaxRevenue: maxRevenue, Groups: groups}
}

func TestEvaluate_NoCapNoPrior_PlainRevenue(t *testing.T) {
	field := mkField()
	crop := mkCrop(nil)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	ctx := metric.Context{PlanningStart: start}

	m, err := metric.Evaluate(1000, crop, field, start, 100, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000*50.0, m.Revenue)
	assert.Equal(t, 100*100.0, m.Cost)
	assert.Equal(t, m.Revenue-m.Cost, m.Profit)
	assert.Equal(t, 1.0, m.InteractionImpact)
	assert.Equal(t, 1.0, m.SoilRecoveryFactor)
}

func TestEvaluate_MarketCap_ConstrainsRevenue(t *testing.T) {
	field := mkField()
	cap := 10000.0
	crop := mkCrop(&cap)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	already := 9000.0
	ctx := metric.Context{
		PlanningStart: start,
		AllAllocations: []domain.CropAllocation{
			{Crop: crop, ExpectedRevenue: &already},
		},
	}

	m, err := metric.Evaluate(1000, crop, field, start, 10, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, m.Revenue) // remaining = 10000-9000 = 1000, base would be 50000
}

func TestEvaluate_ContinuousCultivationPenalty(t *testing.T) {
	field := mkField()
	crop := mkCrop(nil, "Solanaceae")
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	prevCompletion := start.AddDate(0, 0, -5)

	rules := []domain.InteractionRule{
		{RuleType: domain.RuleContinuousCultivation, SourceGroup: "Solanaceae", TargetGroup: "Solanaceae", ImpactRatio: 0.7, IsDirectional: true},
	}
	prev := domain.CropAllocation{
		Field:          field,
		Crop:           domain.Crop{ID: "c0", Groups: []string{"Solanaceae"}},
		CompletionDate: prevCompletion,
	}
	ctx := metric.Context{
		PlanningStart:    start.AddDate(0, 0, -100),
		FieldAllocations: []domain.CropAllocation{prev},
		InteractionRules: rules,
	}

	m, err := metric.Evaluate(1000, crop, field, start, 50, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, m.InteractionImpact, 1e-9)
	// gap=5 days -> soil recovery base (1.0)
	assert.Equal(t, 1.0, m.SoilRecoveryFactor)
	assert.InDelta(t, 1000*50*0.7*1.0, m.Revenue, 1e-6)
}

func TestEvaluate_SoilRecoveryTiers(t *testing.T) {
	field := mkField()
	crop := mkCrop(nil)
	planningStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		gapDays  int
		expected float64
	}{
		{5, 1.00},
		{15, 1.02},
		{29, 1.02},
		{30, 1.05},
		{59, 1.05},
		{60, 1.10},
		{200, 1.10},
	}
	for _, c := range cases {
		start := planningStart.AddDate(0, 0, c.gapDays)
		ctx := metric.Context{PlanningStart: planningStart}
		m, err := metric.Evaluate(100, crop, field, start, 10, ctx)
		require.NoError(t, err)
		assert.Equal(t, c.expected, m.SoilRecoveryFactor, "gap=%d", c.gapDays)
	}
}

func TestEvaluate_NonDirectionalRule_AppliesEitherOrder(t *testing.T) {
	field := mkField()
	crop := mkCrop(nil, "Legume")
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rules := []domain.InteractionRule{
		{RuleType: domain.RuleBeneficialRotation, SourceGroup: "Legume", TargetGroup: "Brassica", ImpactRatio: 1.1, IsDirectional: false},
	}
	prev := domain.CropAllocation{
		Field:          field,
		Crop:           domain.Crop{ID: "c0", Groups: []string{"Brassica"}},
		CompletionDate: start.AddDate(0, 0, -5),
	}
	ctx := metric.Context{
		PlanningStart:    start.AddDate(0, 0, -30),
		FieldAllocations: []domain.CropAllocation{prev},
		InteractionRules: rules,
	}
	m, err := metric.Evaluate(100, crop, field, start, 10, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, m.InteractionImpact, 1e-9)
}

func TestEvaluate_InvalidArea_Errors(t *testing.T) {
	field := mkField()
	crop := mkCrop(nil)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := metric.Evaluate(0, crop, field, start, 10, metric.Context{PlanningStart: start})
	assert.Error(t, err)
}
