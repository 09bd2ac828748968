// Package bulk drives the high-throughput ingestion path: Unicode block
// streaming and SafeTensor tensor ingestion (spec.md §4.7). Both paths
// fan the CPU-bound phase (project, hash, Hilbert-index) out across the
// accum worker pool and hand completed batches to a single writer, either
// the store's binary COPY stream (when the store implements
// store.BulkInserter) or a per-row fallback.
package bulk

import (
	"context"
	"runtime"

	"github.com/AHartTN/hypersphere/accum"
	"github.com/AHartTN/hypersphere/bucketteer"
	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// Progress is reported at coarse intervals (once per flushed batch) during
// a Run. Sparsity is only meaningful for the tensor path and is zero
// otherwise.
type Progress struct {
	Phase       string
	Processed   int64
	Total       int64
	Stored      int64
	SparsityPct float64
}

// ProgressFunc receives Progress updates. It must not block for long: it is
// called from the single flush goroutine.
type ProgressFunc func(Progress)

// Options configures a Run.
type Options struct {
	Workers   int
	BatchSize int
	// ExistenceCheck elides seeds this Run has already flushed, via a
	// bucketteer probe filled with each flushed batch's hashes and confirmed
	// by one lookup_by_hash_batch call per batch (spec.md §4.7 step 4). The
	// probe starts empty on every Run, so seeds the store held before the
	// Run are not elided by this check. Disabled by default: callers
	// streaming into a fresh store skip the round trip entirely.
	ExistenceCheck bool
	OnProgress     ProgressFunc
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// Run streams every seed from seeds through the parallel project/hash phase
// and into st, reporting progress as batches flush. total is advisory (used
// only for progress reporting); pass 0 if unknown.
func Run(ctx context.Context, st store.NodeStore, seeds <-chan model.Seed, total int64, opts Options) (stored int64, err error) {
	acc := accum.New(opts.BatchSize)

	var processed int64
	probe := bucketteer.New()

	flush := func(batch []accum.Candidate) error {
		processed += int64(len(batch))

		toInsert := batch
		if opts.ExistenceCheck {
			toInsert = elideKnown(ctx, st, probe, batch)
		}

		n, ferr := flushBatch(ctx, st, toInsert)
		stored += int64(n)
		if opts.ExistenceCheck {
			for _, c := range toInsert {
				probe.Add(c.Hash)
			}
		}
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Phase: "store", Processed: processed, Total: total, Stored: stored})
		}
		return ferr
	}

	if err := acc.Run(ctx, seeds, opts.workers(), flush); err != nil {
		return stored, err
	}
	return stored, nil
}

// elideKnown drops candidates that the bucketteer probe reports as possibly
// present and that a single batched lookup confirms the store already has.
// Candidates whose hash the probe has not seen are kept without a lookup.
func elideKnown(ctx context.Context, st store.NodeStore, probe *bucketteer.Probe, batch []accum.Candidate) []accum.Candidate {
	probe.Seal()
	maybeNew := make([]accum.Candidate, 0, len(batch))
	hashes := make([]model.ContentHash, 0, len(batch))
	for _, c := range batch {
		if probe.MightContain(c.Hash) {
			hashes = append(hashes, c.Hash)
		}
		maybeNew = append(maybeNew, c)
	}
	if len(hashes) == 0 {
		return maybeNew
	}
	existing, err := st.LookupByHashBatch(ctx, hashes)
	if err != nil || len(existing) == 0 {
		return maybeNew
	}
	out := make([]accum.Candidate, 0, len(batch))
	for _, c := range maybeNew {
		if _, found := existing[c.Hash]; !found {
			out = append(out, c)
		}
	}
	return out
}

func flushBatch(ctx context.Context, st store.NodeStore, batch []accum.Candidate) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	if bulkStore, ok := st.(store.BulkInserter); ok {
		rows := make([]store.BulkConstantRow, len(batch))
		for i, c := range batch {
			rows[i] = store.BulkConstantRow{
				Seed:        c.Seed,
				ContentHash: c.Hash,
				Hilbert:     c.Hilbert,
				Position:    c.Position,
			}
		}
		n, err := bulkStore.CopyBulkConstants(ctx, rows)
		if err != nil {
			return n, errkind.Wrap(errkind.StoreIO, "bulk copy batch: %v", err)
		}
		return n, nil
	}

	n := 0
	for _, c := range batch {
		if _, err := st.GetOrInsertConstant(ctx, c.Seed); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
