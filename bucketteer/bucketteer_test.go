package bucketteer

import (
	"testing"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/stretchr/testify/require"
)

func hashOf(b byte) model.ContentHash {
	var h model.ContentHash
	h[0] = b
	h[31] = b ^ 0xFF
	return h
}

func TestProbeMightContain(t *testing.T) {
	p := New()
	known := hashOf(1)
	p.Add(known)
	p.Seal()

	require.True(t, p.MightContain(known))
	require.False(t, p.MightContain(hashOf(2)))
}

func TestProbeAddBatchAndLen(t *testing.T) {
	p := New()
	hashes := []model.ContentHash{hashOf(1), hashOf(2), hashOf(3)}
	p.AddBatch(hashes)
	require.Equal(t, 3, p.Len())
	p.Seal()
	for _, h := range hashes {
		require.True(t, p.MightContain(h))
	}
}
