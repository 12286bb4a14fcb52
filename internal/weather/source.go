// Package weather defines the optimizer's external weather-data
// collaborator contract and a static/Postgres-backed reference
// implementation of it. Real-world retrieval and forecasting (e.g. an
// ARIMA/LightGBM forecaster feeding future horizon days) is out of scope:
// this package only has to produce a phenology.WeatherLookup over the
// planning horizon.
package weather

import (
	"context"
	"time"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/phenology"
)

// Source is the narrow contract the engine needs from a weather provider:
// every day's record across a horizon, given a field's location key.
type Source interface {
	FetchRange(ctx context.Context, locationKey string, start, end time.Time) ([]domain.WeatherRecord, error)
}

// Lookup fetches a source's records for a horizon and folds them into a
// phenology.WeatherLookup ready for engine.Request.
func Lookup(ctx context.Context, src Source, locationKey string, start, end time.Time) (phenology.WeatherLookup, error) {
	records, err := src.FetchRange(ctx, locationKey, start, end)
	if err != nil {
		return nil, err
	}
	return phenology.SliceLookup(records), nil
}
