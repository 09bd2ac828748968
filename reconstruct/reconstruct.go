// Package reconstruct turns a stored root id back into the original input,
// per spec.md §4.8: a depth-first, in-order traversal of the relation tree
// where constants emit their seed decoding and multiplicities replicate in
// place. Flat modalities (bytes, text, float arrays, image pixels, audio
// samples) need only the fully flattened leaf sequence store.ReconstructSeeds
// already provides; JSON needs the tree shape itself, so its decoder walks
// compositions level by level via store.NodeStore.Inspect instead.
package reconstruct

import (
	"context"
	"math"
	"strconv"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// Bytes reconstructs a BytesPipeline root into its original byte slice.
func Bytes(ctx context.Context, st store.NodeStore, id int64) ([]byte, error) {
	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(seeds))
	for i, s := range seeds {
		if s.Type != model.SeedByte {
			return nil, errkind.Wrap(errkind.InvariantViolation, "seed at position %d is not a BYTE seed", i)
		}
		out[i] = byte(s.Value)
	}
	return out, nil
}

// Text reconstructs a codepoint-sequence root (e.g. the hierarchical text
// decomposer's output) into its original string.
func Text(ctx context.Context, st store.NodeStore, id int64) (string, error) {
	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return "", err
	}
	runes := make([]rune, len(seeds))
	for i, s := range seeds {
		if s.Type != model.SeedUnicodeCodepoint {
			return "", errkind.Wrap(errkind.InvariantViolation, "seed at position %d is not a UNICODE_CODEPOINT seed", i)
		}
		runes[i] = rune(s.Value)
	}
	return string(runes), nil
}

// Float32Array reconstructs a Float32ArrayPipeline root.
func Float32Array(ctx context.Context, st store.NodeStore, id int64) ([]float32, error) {
	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(seeds))
	for i, s := range seeds {
		if s.Type != model.SeedFloat32Bits {
			return nil, errkind.Wrap(errkind.InvariantViolation, "seed at position %d is not a FLOAT32_BITS seed", i)
		}
		out[i] = math.Float32frombits(uint32(s.Value))
	}
	return out, nil
}

// Float64Array reconstructs a Float64ArrayPipeline root.
func Float64Array(ctx context.Context, st store.NodeStore, id int64) ([]float64, error) {
	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(seeds))
	for i, s := range seeds {
		if s.Type != model.SeedFloat64Bits {
			return nil, errkind.Wrap(errkind.InvariantViolation, "seed at position %d is not a FLOAT64_BITS seed", i)
		}
		out[i] = math.Float64frombits(s.Value)
	}
	return out, nil
}

// Image reconstructs an ImagePipeline root into its (width, height, pixels).
func Image(ctx context.Context, st store.NodeStore, id int64) (width, height int, pixels []uint32, err error) {
	meta, err := st.TypeRefMetadata(ctx, id)
	if err != nil {
		return 0, 0, nil, err
	}
	width, err = strconv.Atoi(meta["width"])
	if err != nil {
		return 0, 0, nil, errkind.Wrap(errkind.InvalidInput, "image root %d has no valid width type atom: %v", id, err)
	}
	height, err = strconv.Atoi(meta["height"])
	if err != nil {
		return 0, 0, nil, errkind.Wrap(errkind.InvalidInput, "image root %d has no valid height type atom: %v", id, err)
	}

	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(seeds) != width*height {
		return 0, 0, nil, errkind.Wrap(errkind.InvariantViolation, "image root %d has %d leaf pixels, want %dx%d", id, len(seeds), width, height)
	}
	pixels = make([]uint32, len(seeds))
	for i, s := range seeds {
		pixels[i] = uint32(s.Value)
	}
	return width, height, pixels, nil
}

// Audio reconstructs an AudioPipeline root into its (sample_rate, channels,
// bits, samples).
func Audio(ctx context.Context, st store.NodeStore, id int64) (sampleRate, channels, bits int, samples []float32, err error) {
	meta, err := st.TypeRefMetadata(ctx, id)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	sampleRate, err = strconv.Atoi(meta["sample_rate"])
	if err != nil {
		return 0, 0, 0, nil, errkind.Wrap(errkind.InvalidInput, "audio root %d has no valid sample_rate type atom: %v", id, err)
	}
	channels, err = strconv.Atoi(meta["channels"])
	if err != nil {
		return 0, 0, 0, nil, errkind.Wrap(errkind.InvalidInput, "audio root %d has no valid channels type atom: %v", id, err)
	}
	bits, err = strconv.Atoi(meta["bits"])
	if err != nil {
		return 0, 0, 0, nil, errkind.Wrap(errkind.InvalidInput, "audio root %d has no valid bits type atom: %v", id, err)
	}

	seeds, err := st.ReconstructSeeds(ctx, id)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	samples = make([]float32, len(seeds))
	for i, s := range seeds {
		if s.Type != model.SeedFloat32Bits {
			return 0, 0, 0, nil, errkind.Wrap(errkind.InvariantViolation, "seed at position %d is not a FLOAT32_BITS seed", i)
		}
		samples[i] = math.Float32frombits(uint32(s.Value))
	}
	return sampleRate, channels, bits, samples, nil
}

func childID(c model.Child) int64 {
	if c.IsConstant() {
		return *c.ConstantID
	}
	return *c.CompositionID
}
