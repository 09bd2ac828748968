package accum

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/internal/model"
)

func TestComputeIsDeterministic(t *testing.T) {
	seed := model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'a'}
	c1 := Compute(seed)
	c2 := Compute(seed)
	require.Equal(t, c1, c2)
}

func seedChannel(n int) <-chan model.Seed {
	ch := make(chan model.Seed, n)
	for i := 0; i < n; i++ {
		ch <- model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(i)}
	}
	close(ch)
	return ch
}

func TestAccumulatorFlushesAllCandidates(t *testing.T) {
	a := New(10)

	var mu sync.Mutex
	var total int
	seen := make(map[uint64]bool)

	err := a.Run(context.Background(), seedChannel(37), 4, func(batch []Candidate) error {
		mu.Lock()
		defer mu.Unlock()
		total += len(batch)
		for _, c := range batch {
			seen[c.Seed.Value] = true
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 37, total)
	require.Len(t, seen, 37)
}

func TestAccumulatorPropagatesFlushError(t *testing.T) {
	a := New(5)
	boom := require.AnError

	err := a.Run(context.Background(), seedChannel(20), 2, func(batch []Candidate) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

// TestAccumulatorPropagatesFinalFlushError exercises the case the error-every-
// batch test above can't: flushErr is only set once, by the last batch the
// single flusher goroutine drains, so Run must not read it before that
// goroutine has actually run.
func TestAccumulatorPropagatesFinalFlushError(t *testing.T) {
	a := New(5)
	boom := require.AnError

	var calls int32
	const wantBatches = 4 // 20 seeds / batch size 5, no partial remainder

	err := a.Run(context.Background(), seedChannel(20), 2, func(batch []Candidate) error {
		if atomic.AddInt32(&calls, 1) == wantBatches {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.EqualValues(t, wantBatches, atomic.LoadInt32(&calls))
}

func TestAccumulatorCancellation(t *testing.T) {
	a := New(1_000_000) // never naturally flushes within this test
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Run(ctx, seedChannel(100), 4, func(batch []Candidate) error {
		t.Fatal("flush should not be called when cancelled before any batch fills")
		return nil
	})
	require.Error(t, err)
}
