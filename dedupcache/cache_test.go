package dedupcache

import (
	"testing"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c, err := New(1000)
	require.NoError(t, err)

	var h model.ContentHash
	h[0] = 0x42
	h[1] = 0x01

	_, ok := c.Get(h)
	require.False(t, ok)

	c.Put(h, 7)
	id, ok := c.Get(h)
	require.True(t, ok)
	require.Equal(t, int64(7), id)
}

func TestCacheEvictsUnderCapacity(t *testing.T) {
	c, err := New(shardCount) // 1 entry per shard
	require.NoError(t, err)

	var a, b model.ContentHash
	a[0] = 0x10
	b[0] = 0x10 // same shard
	a[1], b[1] = 1, 2

	c.Put(a, 1)
	c.Put(b, 2)

	_, aStillThere := c.Get(a)
	bID, bOK := c.Get(b)
	require.True(t, bOK)
	require.Equal(t, int64(2), bID)
	require.False(t, aStillThere, "a should have been evicted by the single-capacity shard")
}
