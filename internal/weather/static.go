package weather

import (
	"context"
	"sort"
	"time"

	"github.com/fieldplan/allocator/internal/domain"
)

// StaticSource is an in-memory reference Source, for fixtures, tests, and
// deployments where weather has already been bulk-loaded by another
// process. Records are keyed by an arbitrary location string so a single
// instance can back several fields sharing a weather station.
type StaticSource struct {
	records map[string][]domain.WeatherRecord
}

// NewStaticSource builds a StaticSource from pre-loaded records.
func NewStaticSource(records map[string][]domain.WeatherRecord) *StaticSource {
	return &StaticSource{records: records}
}

// FetchRange implements Source, returning every record within [start, end]
// for the given location, sorted by date.
func (s *StaticSource) FetchRange(_ context.Context, locationKey string, start, end time.Time) ([]domain.WeatherRecord, error) {
	all := s.records[locationKey]
	out := make([]domain.WeatherRecord, 0, len(all))
	for _, r := range all {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
