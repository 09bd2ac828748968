package reconstruct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/pipelines"
	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestBytesRoundTrip(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	data := []byte("round trip me, round trip me")
	id, err := pipelines.BytesPipeline(ctx, s, data)
	require.NoError(t, err)

	out, err := Bytes(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestFloat32ArrayRoundTrip(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	values := []float32{1, 2, 2, 3.5}
	id, err := pipelines.Float32ArrayPipeline(ctx, s, values)
	require.NoError(t, err)

	out, err := Float32Array(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, values, out)
}

func TestImageRoundTrip(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	pixels := []uint32{1, 2, 3, 4, 5, 6}
	id, err := pipelines.ImagePipeline(ctx, s, 3, 2, pixels)
	require.NoError(t, err)

	w, h, out, err := Image(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, 3, w)
	require.Equal(t, 2, h)
	require.Equal(t, pixels, out)
}

func TestAudioRoundTrip(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	samples := []float32{0.1, 0.2, -0.1}
	id, err := pipelines.AudioPipeline(ctx, s, 48000, 2, 24, samples)
	require.NoError(t, err)

	rate, ch, bits, out, err := Audio(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, 48000, rate)
	require.Equal(t, 2, ch)
	require.Equal(t, 24, bits)
	require.Equal(t, samples, out)
}
