package pipelines

import (
	"context"
	"math"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// Float32ArrayPipeline ingests values as FLOAT32_BITS constants preserving
// the IEEE-754 bit pattern exactly, with RLE over adjacent equal bits
// (spec.md §4.5).
func Float32ArrayPipeline(ctx context.Context, st store.NodeStore, values []float32) (int64, error) {
	if len(values) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "float32 array input is empty")
	}
	seeds := make([]model.Seed, len(values))
	for i, v := range values {
		seeds[i] = model.Seed{Type: model.SeedFloat32Bits, Value: uint64(math.Float32bits(v))}
	}
	return insertScalarArray(ctx, st, seeds)
}

// Float64ArrayPipeline is the 64-bit counterpart of Float32ArrayPipeline.
func Float64ArrayPipeline(ctx context.Context, st store.NodeStore, values []float64) (int64, error) {
	if len(values) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "float64 array input is empty")
	}
	seeds := make([]model.Seed, len(values))
	for i, v := range values {
		seeds[i] = model.Seed{Type: model.SeedFloat64Bits, Value: math.Float64bits(v)}
	}
	return insertScalarArray(ctx, st, seeds)
}

func insertScalarArray(ctx context.Context, st store.NodeStore, seeds []model.Seed) (int64, error) {
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
