// Package profile defines the optimizer's crop-phenology-profile
// collaborator contract and a static/Postgres-backed reference
// implementation. A separate, never-in-the-critical-path adapter
// (internal/profilegen) can author new profiles with an LLM but still
// satisfies this same Source contract.
package profile

import (
	"context"

	"github.com/fieldplan/allocator/internal/domain"
)

// Source is the narrow contract the engine needs from a profile provider:
// a crop's staged GDD/thermal requirements, by crop ID.
type Source interface {
	FetchProfile(ctx context.Context, cropID string) ([]domain.StageRequirement, error)
}
