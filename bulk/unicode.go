package bulk

import (
	"context"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

const (
	surrogateStart = 0xD800
	surrogateEnd   = 0xDFFF

	// BMPMax is the last codepoint of the Basic Multilingual Plane.
	BMPMax = 0xFFFF
	// FullMax is the last valid Unicode codepoint.
	FullMax = 0x10FFFF
)

// UnicodeBlock streams every valid codepoint in [start, end] into st,
// skipping the surrogate range, which has no meaning as a standalone
// constant (spec.md §4.7's "Unicode block path").
func UnicodeBlock(ctx context.Context, st store.NodeStore, start, end uint32, opts Options) (stored int64, err error) {
	if end < start {
		start, end = end, start
	}

	total := int64(end-start) + 1
	seeds := make(chan model.Seed, 4096)

	go func() {
		defer close(seeds)
		for cp := start; cp <= end; cp++ {
			if cp >= surrogateStart && cp <= surrogateEnd {
				continue
			}
			select {
			case seeds <- model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(cp)}:
			case <-ctx.Done():
				return
			}
			if cp == FullMax { // avoid wraparound when end == FullMax
				break
			}
		}
	}()

	return Run(ctx, st, seeds, total, opts)
}
