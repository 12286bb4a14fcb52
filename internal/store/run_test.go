package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
)

func TestNewOptimizationRunRecord_CapturesSummaryFields(t *testing.T) {
	profit := 1200.0
	horizon := domain.Horizon{Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	solution := domain.Solution{Allocations: []domain.CropAllocation{
		{AllocationID: "a1", Profit: &profit},
	}}

	run, err := NewOptimizationRunRecord("DP+ALNS", horizon, 3, 2, solution, "")
	require.NoError(t, err)

	assert.Equal(t, "DP+ALNS", run.AlgorithmUsed)
	assert.Equal(t, 1, run.AllocationCount)
	assert.Equal(t, 1200.0, run.TotalProfit)
	assert.Contains(t, run.SolutionJSON, "a1")
}
