// Package model defines the plain record types of the substrate's data
// model: constants, compositions, and the relations that connect them. There
// is no ORM — navigation from a composition to its children is an explicit
// batched query issued by the store package, not a lazily-loaded field.
package model

// SeedType tags the payload carried by a Constant's SeedValue.
type SeedType int32

const (
	SeedUnicodeCodepoint SeedType = iota
	SeedByte
	SeedInteger64
	SeedFloat32Bits
	SeedFloat64Bits
)

func (t SeedType) String() string {
	switch t {
	case SeedUnicodeCodepoint:
		return "UNICODE_CODEPOINT"
	case SeedByte:
		return "BYTE"
	case SeedInteger64:
		return "INTEGER_64"
	case SeedFloat32Bits:
		return "FLOAT32_BITS"
	case SeedFloat64Bits:
		return "FLOAT64_BITS"
	default:
		return "UNKNOWN"
	}
}

// Seed is the tagged payload of a Constant. SeedValue carries the payload
// verbatim: the IEEE-754 bit pattern for floats, a zero-extended codepoint,
// or a two's-complement signed integer.
type Seed struct {
	Type  SeedType
	Value uint64
}

// Point4D is a point on the unit 3-sphere S^3 embedded in R^4.
type Point4D struct {
	X, Y, Z, M float64
}

// Hilbert128 is a 128-bit Hilbert-curve index split into two 64-bit words.
type Hilbert128 struct {
	High uint64
	Low  uint64
}

// ContentHash is a BLAKE3-256 digest identifying a node by its semantic
// contents.
type ContentHash [32]byte

// GeometryRule records which construction rule produced a Composition's
// optional geometry, per DESIGN.md's Open Question decision: "centroid" for
// point-like compositions, "linestring" for trajectory-like ones.
type GeometryRule string

const (
	GeometryNone       GeometryRule = ""
	GeometryCentroid   GeometryRule = "centroid"
	GeometryLineString GeometryRule = "linestring"
)

// Constant is an irreducible leaf node addressed by (SeedType, SeedValue).
type Constant struct {
	ID          int64
	Seed        Seed
	ContentHash ContentHash
	Hilbert     Hilbert128
	Position    Point4D
}

// Child identifies one of a Composition's children: exactly one of
// ConstantID or CompositionID is set.
type Child struct {
	ConstantID    *int64
	CompositionID *int64
}

// IsConstant reports whether the child references a Constant row.
func (c Child) IsConstant() bool { return c.ConstantID != nil }

// Relation is an edge (composition_id, position_index, child, multiplicity).
// Multiplicity encodes a run of identical adjacent children (RLE).
type Relation struct {
	CompositionID int64
	PositionIndex int32
	Child         Child
	Multiplicity  int32
}

// Composition is an ordered, content-addressed sequence of children.
type Composition struct {
	ID           int64
	ContentHash  ContentHash
	Hilbert      Hilbert128
	Position     *Point4D  // optional "point-like" geometry
	Polyline     []Point4D // optional "trajectory-like" geometry
	GeometryRule GeometryRule
	TypeRef      *int64 // nullable reference to a type-atom composition
	Relations    []Relation
}

// ChildRef is a (child, multiplicity) pair used when addressing a new
// composition before its relations have position indexes assigned.
type ChildRef struct {
	Child        Child
	ChildHash    ContentHash
	Multiplicity int32
}
