// Package store is the persistence boundary for constants, compositions, and
// relations. It exposes the handful of typed operations spec.md §4.3 names —
// no ORM, no navigation properties: child traversal is an explicit batched
// query (Inspect, ReconstructSeeds).
package store

import (
	"context"

	"github.com/AHartTN/hypersphere/internal/model"
)

// NodeStore is the contract every persistence backend implements: the
// Postgres-backed Store in this package, and the in-memory reference
// implementation in store/memstore used by tests.
type NodeStore interface {
	// GetOrInsertConstant computes seed's content hash, consults the cache,
	// and on miss inserts a new row. Uniqueness on content_hash is
	// authoritative: on conflict the winning id is returned. Atomic.
	GetOrInsertConstant(ctx context.Context, seed model.Seed) (int64, error)

	// GetOrInsertComposition addresses and, if necessary, inserts a
	// composition over already-addressed children. The composition row and
	// its relations are committed in a single transaction.
	GetOrInsertComposition(ctx context.Context, children []model.ChildRef, typeRef *int64, rule model.GeometryRule) (int64, error)

	// LookupByHashBatch resolves a batch of content hashes to existing node
	// ids, leaving hashes with no existing node absent from the result.
	LookupByHashBatch(ctx context.Context, hashes []model.ContentHash) (map[model.ContentHash]int64, error)

	// ReconstructSeeds walks the relation tree rooted at id and returns the
	// leaf seeds in source order, each repeated according to its
	// multiplicity (recursively, for composition children). id may name
	// either a constant or a composition.
	ReconstructSeeds(ctx context.Context, id int64) ([]model.Seed, error)

	// TypeRefMetadata returns the key/value metadata carried by a type-atom
	// composition (e.g. image width/height), if id references one.
	TypeRefMetadata(ctx context.Context, id int64) (map[string]string, error)

	// Inspect returns id's immediate structure: its seed if it names a
	// constant, or its ordered, RLE'd children and type_ref if it names a
	// composition. Unlike ReconstructSeeds, it does not descend into
	// composition children — it is the primitive tree-shaped pipelines
	// (e.g. JSON) need to walk a composition level by level instead of
	// only via the fully flattened leaf sequence.
	Inspect(ctx context.Context, id int64) (NodeInfo, error)

	// Close releases any held resources (connection pool, file handles).
	Close(ctx context.Context) error
}

// NodeInfo is the immediate (non-recursive) structure of a single node.
type NodeInfo struct {
	IsConstant bool
	Seed       model.Seed       // valid when IsConstant
	Children   []model.ChildRef // valid when !IsConstant, in position order
	TypeRef    *int64           // valid when !IsConstant
}

// BulkConstantRow is a fully-addressed constant ready to stream into the
// store via CopyBulkConstants, bypassing the per-row GetOrInsertConstant
// round trip.
type BulkConstantRow struct {
	Seed        model.Seed
	ContentHash model.ContentHash
	Hilbert     model.Hilbert128
	Position    model.Point4D
}

// BulkInserter is implemented by stores that support the binary COPY
// streaming path (spec.md §4.7). Only the Postgres-backed Store implements
// it; store/memstore falls back to per-row inserts.
type BulkInserter interface {
	CopyBulkConstants(ctx context.Context, rows []BulkConstantRow) (inserted int, err error)
}
