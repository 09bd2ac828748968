package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/AHartTN/hypersphere/store"
)

// errorIs is errors.Is spelled out at the call site in exitForError, kept
// as a named wrapper so that site reads as a flat switch instead of a
// stutter of "errors.Is(err, ...)".
func errorIs(err error, kind error) bool {
	return errors.Is(err, kind)
}

// storeConfig holds the flag/env-var-driven connection settings shared by
// every command that opens a store (SPEC_FULL.md §3: "Database DSN, pool
// size, batch size, and cache capacity are flags/env vars, not a config
// file").
type storeConfig struct {
	dsn           string
	poolSize      int
	cacheCapacity int
}

// storeFlags returns the shared store-connection flags, writing into cfg's
// fields via Destination exactly the way the teacher's command flags do
// (see cmd-rpc.go's listenOn/grpcListenOn pattern).
func storeFlags(cfg *storeConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store-dsn",
			Usage:       "Postgres connection string for the node store",
			EnvVars:     []string{"HYPERSPHERE_STORE_DSN"},
			Value:       "postgres://localhost:5432/hypersphere",
			Destination: &cfg.dsn,
		},
		&cli.IntFlag{
			Name:        "store-pool-size",
			Usage:       "Maximum number of pooled store connections (0 = driver default)",
			EnvVars:     []string{"HYPERSPHERE_STORE_POOL_SIZE"},
			Destination: &cfg.poolSize,
		},
		&cli.IntFlag{
			Name:        "store-cache-capacity",
			Usage:       "Entries retained by the in-process dedup cache",
			EnvVars:     []string{"HYPERSPHERE_STORE_CACHE_CAPACITY"},
			Value:       1_000_000,
			Destination: &cfg.cacheCapacity,
		},
	}
}

// openStore connects using cfg, the common first step of every ingest,
// seed, reconstruct, and lookup command.
func openStore(ctx context.Context, cfg storeConfig) (*store.Store, error) {
	return store.Open(ctx, cfg.dsn,
		store.WithPoolSize(cfg.poolSize),
		store.WithCacheCapacity(cfg.cacheCapacity),
	)
}

// batchSizeFlag is the ingestion batch-size flag shared by the bulk
// commands (spec.md §4.7: "Batch results (>= 10^5 per batch)").
func batchSizeFlag(dest *int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "batch-size",
		Usage:       "Rows per store batch",
		EnvVars:     []string{"HYPERSPHERE_BATCH_SIZE"},
		Value:       100_000,
		Destination: dest,
	}
}

// workersFlag bounds the CPU-bound worker pool (accum.Accumulator) fan-out.
func workersFlag(dest *int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "workers",
		Usage:       "Parallel project/hash workers (0 = number of CPUs)",
		EnvVars:     []string{"HYPERSPHERE_WORKERS"},
		Destination: dest,
	}
}
