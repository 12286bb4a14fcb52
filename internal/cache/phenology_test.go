package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhenologyCacheKey_DistinctForDistinctCropsAndStarts(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.NotEqual(t, phenologyCacheKey("c1", start), phenologyCacheKey("c2", start))
	assert.NotEqual(t, phenologyCacheKey("c1", start), phenologyCacheKey("c1", start.AddDate(0, 0, 1)))
	assert.Equal(t, phenologyCacheKey("c1", start), phenologyCacheKey("c1", start))
}
