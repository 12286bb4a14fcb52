package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldplan/allocator/internal/domain"
)

func TestStaticSource_FetchProfile_ReturnsRegisteredProfile(t *testing.T) {
	stages := []domain.StageRequirement{{StageName: "flowering", RequiredGDD: 400}}
	src := NewStaticSource(map[string][]domain.StageRequirement{"c1": stages})

	got, err := src.FetchProfile(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, stages, got)
}

func TestStaticSource_FetchProfile_UnknownCropErrors(t *testing.T) {
	src := NewStaticSource(map[string][]domain.StageRequirement{})
	_, err := src.FetchProfile(context.Background(), "missing")
	assert.Error(t, err)
}
