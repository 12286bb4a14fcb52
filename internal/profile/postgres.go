package profile

import (
	"context"

	"gorm.io/gorm"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/store"
)

// PostgresSource is the Postgres-backed reference Source implementation,
// delegating straight to the catalog repository's stage-requirement table.
type PostgresSource struct {
	repo *store.Repository
}

// NewPostgresSource wraps a catalog Repository as a Source.
func NewPostgresSource(repo *store.Repository) *PostgresSource {
	return &PostgresSource{repo: repo}
}

// FetchProfile implements Source by loading the full crop catalog and
// returning the requested crop's stage requirements. LoadCrops caches its
// result in-process, so repeated lookups across a single request are cheap.
func (p *PostgresSource) FetchProfile(ctx context.Context, cropID string) ([]domain.StageRequirement, error) {
	_, profiles, err := p.repo.LoadCrops(ctx)
	if err != nil {
		return nil, err
	}
	stages, ok := profiles[cropID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return stages, nil
}
