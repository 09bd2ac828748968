package pipelines

import (
	"context"
	"fmt"
	"math"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// AudioPipeline ingests PCM samples as FLOAT32_BITS constants (reusing the
// float-array pipeline's bit-exactness), with sample_rate, channels, and
// bits carried as a type atom on the root, analogous to ImagePipeline
// (spec.md §4.5). Samples are interleaved across channels.
func AudioPipeline(ctx context.Context, st store.NodeStore, sampleRate, channels, bits int, samples []float32) (int64, error) {
	if sampleRate <= 0 || channels <= 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "sample_rate and channels must be positive, got %d/%d", sampleRate, channels)
	}
	if len(samples) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "audio input has no samples")
	}
	if len(samples)%channels != 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "sample count %d is not a multiple of %d channels", len(samples), channels)
	}

	seeds := make([]model.Seed, len(samples))
	for i, s := range samples {
		seeds[i] = model.Seed{Type: model.SeedFloat32Bits, Value: uint64(math.Float32bits(s))}
	}
	children, err := addr.InsertScalarSequence(ctx, st, seeds)
	if err != nil {
		return 0, err
	}

	typeID, err := addr.BuildTypeAtom(ctx, st, map[string]string{
		"sample_rate": fmt.Sprintf("%d", sampleRate),
		"channels":    fmt.Sprintf("%d", channels),
		"bits":        fmt.Sprintf("%d", bits),
	})
	if err != nil {
		return 0, err
	}

	root, err := addr.InsertComposition(ctx, st, children, &typeID, model.GeometryNone)
	if err != nil {
		return 0, err
	}
	return addr.IDOf(root.Child), nil
}
