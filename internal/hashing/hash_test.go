package hashing

import (
	"testing"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestConstantHashDeterministic(t *testing.T) {
	s := model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'a'}
	assert.Equal(t, ConstantHash(s), ConstantHash(s))
}

func TestConstantHashDistinctSeedsDiffer(t *testing.T) {
	a := ConstantHash(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'a'})
	b := ConstantHash(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'b'})
	assert.NotEqual(t, a, b)
}

func TestConstantHashDistinguishesTypeFromValue(t *testing.T) {
	// Same numeric value, different seed type, must hash differently because
	// the type tag is part of the canonical serialization.
	a := ConstantHash(model.Seed{Type: model.SeedByte, Value: 65})
	b := ConstantHash(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 65})
	assert.NotEqual(t, a, b)
}

func mustHash(b byte) model.ContentHash {
	return ConstantHash(model.Seed{Type: model.SeedByte, Value: uint64(b)})
}

func TestCompositionHashOrderSensitive(t *testing.T) {
	a := mustHash('A')
	b := mustHash('B')

	ab := CompositionHash([]model.ChildRef{
		{ChildHash: a, Multiplicity: 1},
		{ChildHash: b, Multiplicity: 1},
	})
	ba := CompositionHash([]model.ChildRef{
		{ChildHash: b, Multiplicity: 1},
		{ChildHash: a, Multiplicity: 1},
	})
	assert.NotEqual(t, ab, ba)
}

func TestCompositionHashMultiplicitySensitive(t *testing.T) {
	a := mustHash('A')
	m1 := CompositionHash([]model.ChildRef{{ChildHash: a, Multiplicity: 1}})
	m2 := CompositionHash([]model.ChildRef{{ChildHash: a, Multiplicity: 2}})
	assert.NotEqual(t, m1, m2)
}

func TestNoInterTypeCollision(t *testing.T) {
	constHash := mustHash('A')
	compHash := CompositionHash([]model.ChildRef{{ChildHash: mustHash('A'), Multiplicity: 1}})
	assert.NotEqual(t, constHash, compHash)
}
