package pipelines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestImagePipelineRoundTripsAndCarriesDimensions(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	width, height := 2, 3
	pixels := []uint32{
		0xFF0000FF, 0x00FF00FF,
		0x0000FFFF, 0x0000FFFF,
		0xFFFFFFFF, 0x00000000,
	}
	id, err := ImagePipeline(ctx, s, width, height, pixels)
	require.NoError(t, err)

	meta, err := s.TypeRefMetadata(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "2", meta["width"])
	require.Equal(t, "3", meta["height"])

	seeds, err := s.ReconstructSeeds(ctx, id)
	require.NoError(t, err)
	require.Len(t, seeds, len(pixels))
	for i, px := range pixels {
		require.EqualValues(t, px, seeds[i].Value)
	}
}

func TestImagePipelineRejectsMismatchedPixelCount(t *testing.T) {
	s := memstore.New()
	_, err := ImagePipeline(context.Background(), s, 2, 2, []uint32{1, 2, 3})
	require.Error(t, err)
}

func TestImagePipelineRejectsNonPositiveDimensions(t *testing.T) {
	s := memstore.New()
	_, err := ImagePipeline(context.Background(), s, 0, 2, nil)
	require.Error(t, err)
}
