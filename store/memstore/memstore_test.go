package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/internal/hashing"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/internal/typeatom"
)

func seed(cp rune) model.Seed {
	return model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(cp)}
}

// constRef gets-or-inserts sd as a constant and returns a ChildRef for it
// with a correctly populated content hash, as a real caller (a pipeline)
// would build one.
func constRef(t *testing.T, s *Store, ctx context.Context, sd model.Seed, mult int32) model.ChildRef {
	t.Helper()
	id, err := s.GetOrInsertConstant(ctx, sd)
	require.NoError(t, err)
	return model.ChildRef{Child: model.Child{ConstantID: &id}, ChildHash: hashing.ConstantHash(sd), Multiplicity: mult}
}

func TestGetOrInsertConstantDedups(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.GetOrInsertConstant(ctx, seed('a'))
	require.NoError(t, err)
	id2, err := s.GetOrInsertConstant(ctx, seed('a'))
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	id3, err := s.GetOrInsertConstant(ctx, seed('b'))
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestGetOrInsertCompositionRoundTrips(t *testing.T) {
	s := New()
	ctx := context.Background()

	children := []model.ChildRef{
		constRef(t, s, ctx, seed('a'), 1),
		constRef(t, s, ctx, seed('b'), 1),
	}
	compID, err := s.GetOrInsertComposition(ctx, children, nil, model.GeometryCentroid)
	require.NoError(t, err)

	seeds, err := s.ReconstructSeeds(ctx, compID)
	require.NoError(t, err)
	require.Equal(t, []model.Seed{seed('a'), seed('b')}, seeds)
}

func TestGetOrInsertCompositionDedupsByHash(t *testing.T) {
	s := New()
	ctx := context.Background()

	children := []model.ChildRef{constRef(t, s, ctx, seed('x'), 3)}
	id1, err := s.GetOrInsertComposition(ctx, children, nil, model.GeometryCentroid)
	require.NoError(t, err)
	id2, err := s.GetOrInsertComposition(ctx, children, nil, model.GeometryCentroid)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestGetOrInsertCompositionDistinguishesDifferentChildren(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.GetOrInsertComposition(ctx, []model.ChildRef{constRef(t, s, ctx, seed('x'), 1)}, nil, model.GeometryCentroid)
	require.NoError(t, err)
	id2, err := s.GetOrInsertComposition(ctx, []model.ChildRef{constRef(t, s, ctx, seed('y'), 1)}, nil, model.GeometryCentroid)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)
}

func TestGetOrInsertCompositionRejectsEmptyChildren(t *testing.T) {
	s := New()
	_, err := s.GetOrInsertComposition(context.Background(), nil, nil, model.GeometryCentroid)
	require.Error(t, err)
}

func TestGetOrInsertCompositionRejectsZeroMultiplicity(t *testing.T) {
	s := New()
	ctx := context.Background()
	children := []model.ChildRef{constRef(t, s, ctx, seed('z'), 0)}
	_, err := s.GetOrInsertComposition(ctx, children, nil, model.GeometryCentroid)
	require.Error(t, err)
}

func TestLookupByHashBatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.GetOrInsertConstant(ctx, seed('a'))
	require.NoError(t, err)

	hashes, err := s.LookupByHashBatch(ctx, []model.ContentHash{})
	require.NoError(t, err)
	require.Empty(t, hashes)

	h := hashFor(t, s, a)
	allIDs, err := s.LookupByHashBatch(ctx, []model.ContentHash{h})
	require.NoError(t, err)
	require.Contains(t, allIDs, h)
	require.Equal(t, a, allIDs[h])
}

func hashFor(t *testing.T, s *Store, id int64) model.ContentHash {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id].constant.ContentHash
}

func TestTypeRefMetadata(t *testing.T) {
	s := New()
	ctx := context.Background()

	encoded := typeatom.Encode(map[string]string{"width": "4", "height": "2"})
	typeSeeds := typeatom.Seeds(encoded)
	typeChildren := make([]model.ChildRef, len(typeSeeds))
	for i, sd := range typeSeeds {
		typeChildren[i] = constRef(t, s, ctx, sd, 1)
	}
	typeAtom, err := s.GetOrInsertComposition(ctx, typeChildren, nil, model.GeometryNone)
	require.NoError(t, err)

	children := []model.ChildRef{constRef(t, s, ctx, seed('w'), 1)}
	compID, err := s.GetOrInsertComposition(ctx, children, &typeAtom, model.GeometryNone)
	require.NoError(t, err)

	meta, err := s.TypeRefMetadata(ctx, compID)
	require.NoError(t, err)
	require.Equal(t, "4", meta["width"])
	require.Equal(t, "2", meta["height"])
}

func TestTypeRefMetadataNilWhenUnset(t *testing.T) {
	s := New()
	ctx := context.Background()

	children := []model.ChildRef{constRef(t, s, ctx, seed('w'), 1)}
	compID, err := s.GetOrInsertComposition(ctx, children, nil, model.GeometryNone)
	require.NoError(t, err)

	meta, err := s.TypeRefMetadata(ctx, compID)
	require.NoError(t, err)
	require.Nil(t, meta)
}

func TestReconstructNestedComposition(t *testing.T) {
	s := New()
	ctx := context.Background()

	inner, err := s.GetOrInsertComposition(ctx, []model.ChildRef{
		constRef(t, s, ctx, seed('a'), 1),
		constRef(t, s, ctx, seed('b'), 1),
	}, nil, model.GeometryCentroid)
	require.NoError(t, err)

	innerHash := hashFor(t, s, inner)
	outer, err := s.GetOrInsertComposition(ctx, []model.ChildRef{
		{Child: model.Child{CompositionID: &inner}, ChildHash: innerHash, Multiplicity: 2},
	}, nil, model.GeometryCentroid)
	require.NoError(t, err)

	seeds, err := s.ReconstructSeeds(ctx, outer)
	require.NoError(t, err)
	require.Equal(t, []model.Seed{seed('a'), seed('b'), seed('a'), seed('b')}, seeds)
}

func TestReconstructUnknownIDErrors(t *testing.T) {
	s := New()
	_, err := s.ReconstructSeeds(context.Background(), 999)
	require.Error(t, err)
}
