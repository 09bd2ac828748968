package decomposer

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/reconstruct"
	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestDecomposeRoundTripsShortText(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	for _, text := range []string{
		"a",
		"ab",
		"abab",
		"abcabcabcabc",
		"the quick brown fox jumps over the lazy dog",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"mississippi river mississippi delta",
	} {
		id, err := Decompose(ctx, s, text)
		require.NoError(t, err, text)

		got, err := reconstruct.Text(ctx, s, id)
		require.NoError(t, err, text)
		require.Equal(t, text, got, text)
	}
}

func TestDecomposeRejectsEmptyInput(t *testing.T) {
	s := memstore.New()
	_, err := Decompose(context.Background(), s, "")
	require.Error(t, err)
}

func TestDecomposeSharesStructureAcrossCalls(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	// A long repeated substring should induce at least one shared rule: two
	// independent decompositions of texts containing the same substring
	// must bottom out on identical composition ids for that substring.
	shared := "abcdefabcdefabcdefabcdef"
	id1, err := Decompose(ctx, s, shared+" one")
	require.NoError(t, err)
	id2, err := Decompose(ctx, s, shared+" two")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	got1, err := reconstruct.Text(ctx, s, id1)
	require.NoError(t, err)
	got2, err := reconstruct.Text(ctx, s, id2)
	require.NoError(t, err)
	require.Equal(t, shared+" one", got1)
	require.Equal(t, shared+" two", got2)

	// Both roots open with the rule induced for the shared prefix.
	info1, err := s.Inspect(ctx, id1)
	require.NoError(t, err)
	info2, err := s.Inspect(ctx, id2)
	require.NoError(t, err)
	require.False(t, info1.Children[0].Child.IsConstant())
	require.Equal(t, info1.Children[0], info2.Children[0])
}

func TestDecomposeLongRepeatingTextCompresses(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	text := strings.Repeat("ab", 200)
	id, err := Decompose(ctx, s, text)
	require.NoError(t, err)

	got, err := reconstruct.Text(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, text, got)

	info, err := s.Inspect(ctx, id)
	require.NoError(t, err)
	require.Less(t, len(info.Children), len(text)/10)
}

// syntheticProse generates a deterministic, English-prose-like corpus of
// exactly n bytes: a small vocabulary repeated in pseudo-random order, the
// same shape of redundancy (frequent short words, long-range repeats) that
// makes grammar induction over real novel-length text profitable.
func syntheticProse(n int) string {
	vocab := []string{
		"the", "whale", "sea", "captain", "ship", "ahab", "ocean", "harpoon",
		"wind", "wave", "deep", "dark", "night", "morning", "ivory", "leg",
		"crew", "mast", "sail", "storm", "and", "of", "a", "to", "in",
	}
	r := rand.New(rand.NewSource(1))
	var b strings.Builder
	b.Grow(n + 16)
	for b.Len() < n {
		b.WriteString(vocab[r.Intn(len(vocab))])
		b.WriteByte(' ')
	}
	return b.String()[:n]
}

// TestDecomposeScalesToNovelLengthText exercises the decomposer at the
// Moby-Dick-sized target spec.md §4.6 states for its O(N) amortized
// complexity claim: a full round-based digram-table rebuild regresses this
// to minutes, well past the 15s budget, where the single-pass induction
// over a doubly-linked symbol list stays linear.
func TestDecomposeScalesToNovelLengthText(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large-input scan in -short mode")
	}
	s := memstore.New()
	ctx := context.Background()

	text := syntheticProse(1_200_000)

	start := time.Now()
	id, err := Decompose(ctx, s, text)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Lessf(t, elapsed, 15*time.Second,
		"decomposing %d bytes took %s, want under 15s (spec.md §4.6)", len(text), elapsed)

	got, err := reconstruct.Text(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, text, got)
}

// BenchmarkDecomposeLargeText tracks the decomposer's scaling behavior
// directly; `go test -bench=. -benchtime=3x` should show near-linear growth
// in allocs/op and ns/op as the input doubles, not the quadratic blowup a
// full-table-rebuild induction would show.
func BenchmarkDecomposeLargeText(b *testing.B) {
	text := syntheticProse(1_200_000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := memstore.New()
		if _, err := Decompose(ctx, s, text); err != nil {
			b.Fatal(err)
		}
	}
}
