package weather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStaticSource_FetchRange_FiltersByWindowAndSorts(t *testing.T) {
	t1, t2, t3 := 20.0, 21.0, 22.0
	src := NewStaticSource(map[string][]domain.WeatherRecord{
		"stationA": {
			{Date: day(2025, 4, 3), TempMean: &t3},
			{Date: day(2025, 4, 1), TempMean: &t1},
			{Date: day(2025, 4, 2), TempMean: &t2},
			{Date: day(2025, 5, 1), TempMean: &t1},
		},
	})

	out, err := src.FetchRange(context.Background(), "stationA", day(2025, 4, 1), day(2025, 4, 3))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, out[0].Date.Equal(day(2025, 4, 1)))
	assert.True(t, out[2].Date.Equal(day(2025, 4, 3)))
}

func TestStaticSource_FetchRange_UnknownLocationReturnsEmpty(t *testing.T) {
	src := NewStaticSource(map[string][]domain.WeatherRecord{})
	out, err := src.FetchRange(context.Background(), "missing", day(2025, 4, 1), day(2025, 4, 3))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLookup_BuildsWeatherLookupFromSource(t *testing.T) {
	tMean := 18.0
	src := NewStaticSource(map[string][]domain.WeatherRecord{
		"stationA": {{Date: day(2025, 4, 1), TempMean: &tMean}},
	})

	lookup, err := Lookup(context.Background(), src, "stationA", day(2025, 4, 1), day(2025, 4, 1))
	require.NoError(t, err)

	rec, ok := lookup(day(2025, 4, 1))
	require.True(t, ok)
	assert.Equal(t, tMean, *rec.TempMean)

	_, ok = lookup(day(2025, 4, 2))
	assert.False(t, ok)
}
