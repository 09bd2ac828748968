package sphere

import (
	"math"
	"testing"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeds() []model.Seed {
	return []model.Seed{
		{Type: model.SeedUnicodeCodepoint, Value: 'A'},
		{Type: model.SeedUnicodeCodepoint, Value: 'B'},
		{Type: model.SeedUnicodeCodepoint, Value: 0x10FFFF},
		{Type: model.SeedInteger64, Value: uint64(int64(-42))},
		{Type: model.SeedInteger64, Value: 42},
		{Type: model.SeedFloat32Bits, Value: uint64(math.Float32bits(3.14))},
		{Type: model.SeedFloat64Bits, Value: math.Float64bits(-0.0)},
		{Type: model.SeedFloat64Bits, Value: math.Float64bits(math.NaN())},
		{Type: model.SeedFloat64Bits, Value: math.Float64bits(math.Inf(1))},
		{Type: model.SeedByte, Value: 0x7F},
	}
}

func TestProjectIsOnUnitSphere(t *testing.T) {
	for _, s := range seeds() {
		p := Project(s)
		norm := p.X*p.X + p.Y*p.Y + p.Z*p.Z + p.M*p.M
		assert.InDelta(t, 1.0, norm, 1e-10, "seed %+v not on unit sphere: %+v", s, p)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	for _, s := range seeds() {
		a := Project(s)
		b := Project(s)
		require.Equal(t, a, b)
	}
}

func TestProjectDistinctSeedsDiffer(t *testing.T) {
	a := Project(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'A'})
	b := Project(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 'B'})
	assert.NotEqual(t, a, b)
}

func TestProjectMaxCodepoint(t *testing.T) {
	p := Project(model.Seed{Type: model.SeedUnicodeCodepoint, Value: 0x10FFFF})
	norm := p.X*p.X + p.Y*p.Y + p.Z*p.Z + p.M*p.M
	assert.InDelta(t, 1.0, norm, 1e-10)
}

func TestProjectHandlesSpecialFloats(t *testing.T) {
	for _, bits := range []uint64{
		math.Float64bits(0),
		math.Float64bits(math.Copysign(0, -1)),
		math.Float64bits(math.NaN()),
		math.Float64bits(math.Inf(1)),
		math.Float64bits(math.Inf(-1)),
		math.Float64bits(5e-310), // denormal
	} {
		p := Project(model.Seed{Type: model.SeedFloat64Bits, Value: bits})
		norm := p.X*p.X + p.Y*p.Y + p.Z*p.Z + p.M*p.M
		assert.InDelta(t, 1.0, norm, 1e-10)
	}
}
