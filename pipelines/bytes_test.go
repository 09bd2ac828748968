package pipelines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestBytesPipelineRoundTrips(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	data := []byte("hello, hello, world!!!")
	id, err := BytesPipeline(ctx, s, data)
	require.NoError(t, err)

	seeds, err := s.ReconstructSeeds(ctx, id)
	require.NoError(t, err)
	require.Len(t, seeds, len(data))
	for i, b := range data {
		require.EqualValues(t, b, seeds[i].Value)
	}
}

func TestBytesPipelineRejectsEmptyInput(t *testing.T) {
	s := memstore.New()
	_, err := BytesPipeline(context.Background(), s, nil)
	require.Error(t, err)
}

func TestBytesPipelineDedupsIdenticalInput(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	data := []byte("repeat me")
	id1, err := BytesPipeline(ctx, s, data)
	require.NoError(t, err)
	id2, err := BytesPipeline(ctx, s, data)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}
