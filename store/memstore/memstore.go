// Package memstore is the in-memory NodeStore implementation Design Notes
// §9 calls for: a deterministic stand-in for Postgres used by every other
// package's tests, so the hierarchical decomposer's cross-document sharing
// and the pipelines' reconstruction round trips can be exercised without a
// live database.
package memstore

import (
	"context"
	"sync"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/hashing"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/internal/sphere"
	"github.com/AHartTN/hypersphere/internal/typeatom"
	"github.com/AHartTN/hypersphere/store"
	"github.com/AHartTN/hypersphere/store/geo"
)

type node struct {
	isConstant bool
	constant   model.Constant
	relations  []model.Relation
	typeRef    *int64
}

// Store is a sync.RWMutex-guarded in-memory NodeStore.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	byHash map[model.ContentHash]int64
	nodes  map[int64]*node
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		byHash: make(map[model.ContentHash]int64),
		nodes:  make(map[int64]*node),
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// GetOrInsertConstant implements store.NodeStore.
func (s *Store) GetOrInsertConstant(ctx context.Context, seed model.Seed) (int64, error) {
	hash := hashing.ConstantHash(seed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byHash[hash]; ok {
		return id, nil
	}

	pos := sphere.Project(seed)
	hilbert := sphere.HilbertOf(pos)
	id := s.allocID()
	s.nodes[id] = &node{
		isConstant: true,
		constant: model.Constant{
			ID:          id,
			Seed:        seed,
			ContentHash: hash,
			Hilbert:     hilbert,
			Position:    pos,
		},
	}
	s.byHash[hash] = id
	return id, nil
}

// GetOrInsertComposition implements store.NodeStore.
func (s *Store) GetOrInsertComposition(ctx context.Context, children []model.ChildRef, typeRef *int64, rule model.GeometryRule) (int64, error) {
	if len(children) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "composition must have at least one child")
	}
	for _, c := range children {
		if c.Multiplicity < 1 {
			return 0, errkind.Wrap(errkind.PreconditionViolation, "multiplicity must be >= 1, got %d", c.Multiplicity)
		}
	}

	hash := hashing.CompositionHash(children)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byHash[hash]; ok {
		return id, nil
	}

	points := make([]model.Point4D, len(children))
	for i, c := range children {
		var childID int64
		if c.Child.IsConstant() {
			childID = *c.Child.ConstantID
		} else {
			childID = *c.Child.CompositionID
		}
		n, ok := s.nodes[childID]
		if !ok {
			return 0, errkind.Wrap(errkind.InvariantViolation, "child id %d does not exist", childID)
		}
		if n.isConstant {
			points[i] = n.constant.Position
		} else {
			points[i] = sphere.DecodeHilbert(n.constant.Hilbert)
		}
	}

	id := s.allocID()
	relations := make([]model.Relation, len(children))
	for i, c := range children {
		relations[i] = model.Relation{
			CompositionID: id,
			PositionIndex: int32(i),
			Child:         c.Child,
			Multiplicity:  c.Multiplicity,
		}
	}

	// The centroid is always used for the Hilbert index, matching the
	// Postgres store's representativePositions/insertComposition: rule only
	// changes which geometry shape a real geometry column would carry, and
	// memstore has no such column to populate.
	repr := geo.Centroid(points)
	hilbert := sphere.HilbertOf(repr)

	s.nodes[id] = &node{
		isConstant: false,
		constant: model.Constant{
			ID:          id,
			ContentHash: hash,
			Hilbert:     hilbert,
			Position:    repr,
		},
		relations: relations,
		typeRef:   typeRef,
	}
	s.byHash[hash] = id
	return id, nil
}

// LookupByHashBatch implements store.NodeStore.
func (s *Store) LookupByHashBatch(ctx context.Context, hashes []model.ContentHash) (map[model.ContentHash]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.ContentHash]int64, len(hashes))
	for _, h := range hashes {
		if id, ok := s.byHash[h]; ok {
			out[h] = id
		}
	}
	return out, nil
}

// ReconstructSeeds implements store.NodeStore.
func (s *Store) ReconstructSeeds(ctx context.Context, id int64) ([]model.Seed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Seed
	if err := s.reconstructLocked(id, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) reconstructLocked(id int64, out *[]model.Seed) error {
	n, ok := s.nodes[id]
	if !ok {
		return errkind.Wrap(errkind.InvariantViolation, "id %d does not exist", id)
	}
	if n.isConstant {
		*out = append(*out, n.constant.Seed)
		return nil
	}
	for _, rel := range n.relations {
		var childID int64
		if rel.Child.IsConstant() {
			childID = *rel.Child.ConstantID
		} else {
			childID = *rel.Child.CompositionID
		}
		for i := int32(0); i < rel.Multiplicity; i++ {
			if err := s.reconstructLocked(childID, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypeRefMetadata implements store.NodeStore. Type-atom metadata is stored
// the same way Postgres stores it: as the reconstructed codepoint sequence
// of a small companion composition encoding "key=value;key=value" pairs.
func (s *Store) TypeRefMetadata(ctx context.Context, id int64) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, errkind.Wrap(errkind.InvariantViolation, "id %d does not exist", id)
	}
	if n.typeRef == nil {
		return nil, nil
	}
	var seeds []model.Seed
	if err := s.reconstructLocked(*n.typeRef, &seeds); err != nil {
		return nil, err
	}
	return typeatom.DecodeSeeds(seeds), nil
}

// Inspect implements store.NodeStore.
func (s *Store) Inspect(ctx context.Context, id int64) (store.NodeInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return store.NodeInfo{}, errkind.Wrap(errkind.InvariantViolation, "id %d does not exist", id)
	}
	if n.isConstant {
		return store.NodeInfo{IsConstant: true, Seed: n.constant.Seed}, nil
	}
	children := make([]model.ChildRef, len(n.relations))
	for i, rel := range n.relations {
		childNode := s.nodes[idOfChild(rel.Child)]
		children[i] = model.ChildRef{Child: rel.Child, ChildHash: childNode.constant.ContentHash, Multiplicity: rel.Multiplicity}
	}
	return store.NodeInfo{Children: children, TypeRef: n.typeRef}, nil
}

func idOfChild(c model.Child) int64 {
	if c.IsConstant() {
		return *c.ConstantID
	}
	return *c.CompositionID
}

// Close implements store.NodeStore.
func (s *Store) Close(ctx context.Context) error { return nil }
