package pipelines

import (
	"context"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// BytesPipeline ingests data as a composition of byte-valued constants with
// RLE over adjacent equal bytes (spec.md §4.5). The root's reconstruction
// via store.ReconstructSeeds is bit-exact with data.
func BytesPipeline(ctx context.Context, st store.NodeStore, data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "bytes input is empty")
	}

	seeds := make([]model.Seed, len(data))
	for i, b := range data {
		seeds[i] = model.Seed{Type: model.SeedByte, Value: uint64(b)}
	}

	children, err := addr.InsertScalarSequence(ctx, st, seeds)
	if err != nil {
		return 0, err
	}
	r, err := addr.InsertComposition(ctx, st, children, nil, model.GeometryNone)
	if err != nil {
		return 0, err
	}
	return addr.IDOf(r.Child), nil
}
