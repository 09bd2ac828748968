package pipelines

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestFloat32ArrayPipelineRoundTrips(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	values := []float32{1.5, 1.5, -0.0, float32(math.NaN()), 3.25}
	id, err := Float32ArrayPipeline(ctx, s, values)
	require.NoError(t, err)

	seeds, err := s.ReconstructSeeds(ctx, id)
	require.NoError(t, err)
	require.Len(t, seeds, len(values))
	for i, v := range values {
		require.Equal(t, math.Float32bits(v), uint32(seeds[i].Value))
	}
}

func TestFloat64ArrayPipelineRoundTrips(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	values := []float64{1.5, 2.25, 2.25, -3.75}
	id, err := Float64ArrayPipeline(ctx, s, values)
	require.NoError(t, err)

	seeds, err := s.ReconstructSeeds(ctx, id)
	require.NoError(t, err)
	require.Len(t, seeds, len(values))
	for i, v := range values {
		require.Equal(t, math.Float64bits(v), seeds[i].Value)
	}
}

func TestFloatArrayPipelinesRejectEmptyInput(t *testing.T) {
	s := memstore.New()
	_, err := Float32ArrayPipeline(context.Background(), s, nil)
	require.Error(t, err)
	_, err = Float64ArrayPipeline(context.Background(), s, nil)
	require.Error(t, err)
}
