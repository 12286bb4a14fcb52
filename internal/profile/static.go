package profile

import (
	"context"
	"fmt"

	"github.com/fieldplan/allocator/internal/domain"
)

// StaticSource is an in-memory reference Source, backed by profiles loaded
// once at startup (e.g. from internal/store.Repository.LoadCrops).
type StaticSource struct {
	profiles map[string][]domain.StageRequirement
}

// NewStaticSource builds a StaticSource from a pre-loaded profile map.
func NewStaticSource(profiles map[string][]domain.StageRequirement) *StaticSource {
	return &StaticSource{profiles: profiles}
}

// FetchProfile implements Source.
func (s *StaticSource) FetchProfile(_ context.Context, cropID string) ([]domain.StageRequirement, error) {
	stages, ok := s.profiles[cropID]
	if !ok {
		return nil, fmt.Errorf("profile: no profile registered for crop %q", cropID)
	}
	return stages, nil
}
