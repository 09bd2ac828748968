package bulk

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// TensorEntry describes one tensor's location and type within a SafeTensor
// file, per spec.md §6's "Input file formats" table.
type TensorEntry struct {
	Name        string
	Dtype       string
	Shape       []int64
	OffsetStart int64
	OffsetEnd   int64
}

type tensorHeaderEntry struct {
	Dtype       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// ParseSafeTensorHeader reads the leading uint64_LE header length and JSON
// dict from data, returning every tensor entry found and the byte offset at
// which the raw data region begins. Entries whose dtype is neither "F16"
// nor "F32" are reported as warnings, not errors: spec.md §6 requires only
// those two dtypes to be ingestible.
func ParseSafeTensorHeader(data []byte) (entries []TensorEntry, dataStart int64, warnings error, err error) {
	if len(data) < 8 {
		return nil, 0, nil, errkind.Wrap(errkind.InvalidInput, "safetensor: truncated header length")
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data)) < 8+headerLen {
		return nil, 0, nil, errkind.Wrap(errkind.InvalidInput, "safetensor: truncated header body")
	}

	raw := map[string]jsoniter.RawMessage{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data[8:8+headerLen], &raw); err != nil {
		return nil, 0, nil, errkind.Wrap(errkind.InvalidInput, "safetensor: malformed header json: %v", err)
	}

	var warn error
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}
		var e tensorHeaderEntry
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(msg, &e); err != nil {
			warn = multierr.Append(warn, errkind.Wrap(errkind.InvalidInput, "safetensor: tensor %q: %v", name, err))
			continue
		}
		switch e.Dtype {
		case "F16", "F32":
		default:
			warn = multierr.Append(warn, errkind.Wrap(errkind.InvalidInput, "safetensor: tensor %q: unsupported dtype %q, skipped", name, e.Dtype))
			continue
		}
		entries = append(entries, TensorEntry{
			Name:        name,
			Dtype:       e.Dtype,
			Shape:       e.Shape,
			OffsetStart: e.DataOffsets[0],
			OffsetEnd:   e.DataOffsets[1],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, 8 + int64(headerLen), warn, nil
}

// F16ToF32 converts an IEEE 754 half-precision bit pattern to a float32
// value via the standard exponent-bias and mantissa-shift widening (spec.md
// §4.7's tensor path).
func F16ToF32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	var outExp, outMant uint32
	switch {
	case exp == 0 && mant == 0: // zero
		outExp, outMant = 0, 0
	case exp == 0: // subnormal half -> normalize into float32
		e := 0
		m := mant
		for m&0x400 == 0 {
			m <<= 1
			e--
		}
		m &= 0x3FF
		outExp = uint32(int32(e) + 127 - 15 + 1)
		outMant = m << 13
	case exp == 0x1F: // inf/nan
		outExp, outMant = 0xFF, mant<<13
	default:
		outExp = exp - 15 + 127
		outMant = mant << 13
	}

	bits := sign<<31 | outExp<<23 | outMant
	return math.Float32frombits(bits)
}

func tensorValuesF32(data []byte, e TensorEntry) []float32 {
	region := data[e.OffsetStart:e.OffsetEnd]
	switch e.Dtype {
	case "F32":
		n := len(region) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(region[i*4:])
			out[i] = math.Float32frombits(bits)
		}
		return out
	case "F16":
		n := len(region) / 2
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint16(region[i*2:])
			out[i] = F16ToF32(bits)
		}
		return out
	default:
		return nil
	}
}

// SparsityThreshold samples |values| and returns the magnitude at the
// requested percentile (0-100), used as τ when target_sparsity_pct > 0 is
// configured (spec.md §4.7: "a first pass samples magnitudes and picks τ at
// the requested percentile").
func SparsityThreshold(values []float32, percentile float64) float32 {
	if len(values) == 0 || percentile <= 0 {
		return 0
	}
	if percentile > 100 {
		percentile = 100
	}
	mags := make([]float32, len(values))
	for i, v := range values {
		mags[i] = float32(math.Abs(float64(v)))
	}
	sort.Slice(mags, func(i, j int) bool { return mags[i] < mags[j] })
	idx := int(percentile / 100 * float64(len(mags)-1))
	return mags[idx]
}

// SafeTensorOptions configures a Tensor ingestion.
type SafeTensorOptions struct {
	Options
	// SparsityThresholdValue, if >0, drops values with |v| below it.
	SparsityThresholdValue float32
	// TargetSparsityPct, if >0, overrides SparsityThresholdValue: a
	// percentile-sampled τ is computed from the tensor's own values first.
	TargetSparsityPct float64
}

// TensorResult summarizes one tensor's ingestion.
type TensorResult struct {
	Name        string
	Stored      int64
	Skipped     int64
	SparsityPct float64
}

// Tensor ingests every supported tensor entry found in data's SafeTensor
// header, streaming each tensor's values through the same project/hash/
// store pipeline as UnicodeBlock. Returns one TensorResult per tensor
// actually ingested, plus any warnings accumulated while parsing the
// header or skipping unsupported dtypes.
func Tensor(ctx context.Context, st store.NodeStore, data []byte, opts SafeTensorOptions) ([]TensorResult, error) {
	entries, dataStart, warnings, err := ParseSafeTensorHeader(data)
	if err != nil {
		return nil, err
	}

	results := make([]TensorResult, 0, len(entries))
	for _, e := range entries {
		values := tensorValuesF32(data[dataStart:], e)

		tau := opts.SparsityThresholdValue
		if opts.TargetSparsityPct > 0 {
			tau = SparsityThreshold(values, opts.TargetSparsityPct)
		}

		seeds := make(chan model.Seed, 4096)
		var skipped int64
		go func(values []float32) {
			defer close(seeds)
			for _, v := range values {
				if tau > 0 && float32(math.Abs(float64(v))) < tau {
					skipped++
					continue
				}
				select {
				case seeds <- model.Seed{Type: model.SeedFloat32Bits, Value: uint64(math.Float32bits(v))}:
				case <-ctx.Done():
					return
				}
			}
		}(values)

		tensorOpts := opts.Options
		if tensorOpts.OnProgress != nil {
			userProgress, name := tensorOpts.OnProgress, e.Name
			sparsity := 0.0
			if tau > 0 && len(values) > 0 {
				var below int
				for _, v := range values {
					if float32(math.Abs(float64(v))) < tau {
						below++
					}
				}
				sparsity = float64(below) / float64(len(values)) * 100
			}
			tensorOpts.OnProgress = func(p Progress) {
				p.Phase = name
				p.SparsityPct = sparsity
				userProgress(p)
			}
		}

		stored, err := Run(ctx, st, seeds, int64(len(values)), tensorOpts)
		if err != nil {
			return results, multierr.Append(warnings, err)
		}

		pct := 0.0
		if len(values) > 0 {
			pct = float64(skipped) / float64(len(values)) * 100
		}
		results = append(results, TensorResult{Name: e.Name, Stored: stored, Skipped: skipped, SparsityPct: pct})
	}
	return results, warnings
}
