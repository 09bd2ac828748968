// Package addr holds the bottom-up addressing helpers every ingestion
// pipeline shares: resolve a seed or an already-addressed sequence of
// children to a store node, computing the exact content hash the store
// itself will recompute, and run-length-encode adjacent identical children
// before addressing a composition over them (spec.md §4.5).
package addr

import (
	"context"

	"github.com/AHartTN/hypersphere/internal/hashing"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/internal/typeatom"
	"github.com/AHartTN/hypersphere/store"
)

// Resolved is a child already addressed in the store, paired with the
// content hash needed to address a parent composition over it.
type Resolved struct {
	Child model.Child
	Hash  model.ContentHash
}

// IDOf returns the node id a Child references, constant or composition.
func IDOf(c model.Child) int64 {
	if c.IsConstant() {
		return *c.ConstantID
	}
	return *c.CompositionID
}

func constantChild(id int64) model.Child {
	v := id
	return model.Child{ConstantID: &v}
}

func compositionChild(id int64) model.Child {
	v := id
	return model.Child{CompositionID: &v}
}

func sameChild(a, b model.Child) bool {
	if a.IsConstant() != b.IsConstant() {
		return false
	}
	if a.IsConstant() {
		return *a.ConstantID == *b.ConstantID
	}
	return *a.CompositionID == *b.CompositionID
}

// RunLengthEncode collapses runs of adjacent identical children into a
// single ChildRef with multiplicity > 1.
func RunLengthEncode(seq []Resolved) []model.ChildRef {
	if len(seq) == 0 {
		return nil
	}
	out := make([]model.ChildRef, 0, len(seq))
	i := 0
	for i < len(seq) {
		j := i + 1
		for j < len(seq) && sameChild(seq[i].Child, seq[j].Child) {
			j++
		}
		out = append(out, model.ChildRef{
			Child:        seq[i].Child,
			ChildHash:    seq[i].Hash,
			Multiplicity: int32(j - i),
		})
		i = j
	}
	return out
}

// InsertConstant addresses a single seed.
func InsertConstant(ctx context.Context, st store.NodeStore, seed model.Seed) (Resolved, error) {
	id, err := st.GetOrInsertConstant(ctx, seed)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Child: constantChild(id), Hash: hashing.ConstantHash(seed)}, nil
}

// InsertScalarSequence resolves a sequence of seeds to their constant ids,
// memoizing within the call so the same seed is never addressed twice.
func InsertScalarSequence(ctx context.Context, st store.NodeStore, seeds []model.Seed) ([]Resolved, error) {
	cache := make(map[model.Seed]Resolved, len(seeds))
	out := make([]Resolved, len(seeds))
	for i, sd := range seeds {
		if r, ok := cache[sd]; ok {
			out[i] = r
			continue
		}
		r, err := InsertConstant(ctx, st, sd)
		if err != nil {
			return nil, err
		}
		cache[sd] = r
		out[i] = r
	}
	return out, nil
}

// InsertComposition run-length-encodes children and addresses a
// composition over the result.
func InsertComposition(ctx context.Context, st store.NodeStore, children []Resolved, typeRef *int64, rule model.GeometryRule) (Resolved, error) {
	refs := RunLengthEncode(children)
	id, err := st.GetOrInsertComposition(ctx, refs, typeRef, rule)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Child: compositionChild(id), Hash: hashing.CompositionHash(refs)}, nil
}

// BuildTypeAtom addresses the small codepoint composition that carries meta
// as a "key=value;key=value" string via a composition's type_ref.
func BuildTypeAtom(ctx context.Context, st store.NodeStore, meta map[string]string) (int64, error) {
	seeds := typeatom.Seeds(typeatom.Encode(meta))
	children, err := InsertScalarSequence(ctx, st, seeds)
	if err != nil {
		return 0, err
	}
	r, err := InsertComposition(ctx, st, children, nil, model.GeometryNone)
	if err != nil {
		return 0, err
	}
	return IDOf(r.Child), nil
}

// CodepointSeeds converts a string into its UNICODE_CODEPOINT seed sequence.
func CodepointSeeds(s string) []model.Seed {
	seeds := make([]model.Seed, 0, len(s))
	for _, r := range s {
		seeds = append(seeds, model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(r)})
	}
	return seeds
}
