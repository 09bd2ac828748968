// Package accum is the CPU-bound worker pool for the bulk ingestor's
// parallel phase: project a seed, derive its Hilbert index, and compute its
// content hash (spec.md §4.7 step 2). It is adapted from the teacher's
// ObjectAccumulator producer/flush-queue split in accum/block.go: stateless
// workers produce candidates, a single goroutine drains the flush queue and
// hands completed batches to the caller, matching spec.md §5's "workers
// produce; a single I/O task consumes" rule.
package accum

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/hashing"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/internal/sphere"
)

// Candidate is a fully-addressed constant, computed deterministically and
// statelessly from its seed alone.
type Candidate struct {
	Seed     model.Seed
	Hash     model.ContentHash
	Hilbert  model.Hilbert128
	Position model.Point4D
}

// Compute projects seed, derives its Hilbert index, and hashes it. It is
// pure and safe to call concurrently from any number of goroutines.
func Compute(seed model.Seed) Candidate {
	pos := sphere.Project(seed)
	return Candidate{
		Seed:     seed,
		Hash:     hashing.ConstantHash(seed),
		Hilbert:  sphere.HilbertOf(pos),
		Position: pos,
	}
}

var batchPool = sync.Pool{New: func() any { return make([]Candidate, 0, 65536) }}

// Accumulator fans Compute out across worker goroutines and serializes
// completed batches onto a single flush queue.
type Accumulator struct {
	batchSize  int
	flushQueue chan []Candidate
	flushWg    sync.WaitGroup

	flushErrMu sync.Mutex
	flushErr   error
}

// New returns an Accumulator that flushes every batchSize completed
// candidates (and once more for a final partial batch, if the run
// completes without cancellation). batchSize <= 0 defaults to 100,000,
// spec.md §4.7's minimum recommended batch size.
func New(batchSize int) *Accumulator {
	if batchSize <= 0 {
		batchSize = 100_000
	}
	return &Accumulator{batchSize: batchSize, flushQueue: make(chan []Candidate, 8)}
}

func (a *Accumulator) startFlusher(flush func([]Candidate) error) {
	for batch := range a.flushQueue {
		if a.getFlushErr() == nil {
			if err := flush(batch); err != nil {
				a.setFlushErr(err)
			}
		}
		a.flushWg.Done()
		batch = batch[:0]
		batchPool.Put(batch)
	}
}

func (a *Accumulator) setFlushErr(err error) {
	a.flushErrMu.Lock()
	a.flushErr = err
	a.flushErrMu.Unlock()
}

func (a *Accumulator) getFlushErr() error {
	a.flushErrMu.Lock()
	defer a.flushErrMu.Unlock()
	return a.flushErr
}

// Run computes Compute(seed) for every seed read from seeds across workers
// goroutines and calls flush once per batchSize completed candidates. On
// cancellation, any partially filled final batch is discarded wholesale
// rather than flushed (spec.md §5: "an in-flight batch either completes or
// is aborted as a whole"); Run then returns an errkind.Cancelled error.
func (a *Accumulator) Run(ctx context.Context, seeds <-chan model.Seed, workers int, flush func([]Candidate) error) error {
	if workers <= 0 {
		workers = 1
	}

	go a.startFlusher(flush)

	results := make(chan Candidate, workers*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case seed, ok := <-seeds:
					if !ok {
						return nil
					}
					c := Compute(seed)
					select {
					case results <- c:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
		})
	}

	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		a.collect(ctx, results)
	}()

	workerErr := g.Wait()
	close(results)
	<-collectDone

	// Every batch collect() will ever enqueue has been sent by now (collect
	// only runs while collectDone is open); wait for the flusher to drain
	// them, including the final one, before reading flushErr below.
	a.flushWg.Wait()
	close(a.flushQueue)

	if workerErr != nil {
		if errors.Is(workerErr, context.Canceled) || errors.Is(workerErr, context.DeadlineExceeded) {
			return errkind.Wrap(errkind.Cancelled, "ingestion cancelled: %v", workerErr)
		}
		return workerErr
	}
	return a.getFlushErr()
}

func (a *Accumulator) collect(ctx context.Context, results <-chan Candidate) {
	batch := batchPool.Get().([]Candidate)
	for c := range results {
		batch = append(batch, c)
		if len(batch) >= a.batchSize {
			a.flushWg.Add(1)
			a.flushQueue <- batch
			batch = batchPool.Get().([]Candidate)
		}
	}
	if len(batch) > 0 && ctx.Err() == nil {
		a.flushWg.Add(1)
		a.flushQueue <- batch
		return
	}
	batch = batch[:0]
	batchPool.Put(batch)
}
