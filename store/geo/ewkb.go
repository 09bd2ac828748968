// Package geo encodes the substrate's 4-D points and polylines as
// little-endian EWKB (Extended Well-Known Binary) for the zero-SRID
// POINT ZM / GEOMETRY ZM columns spec.md §6 specifies.
package geo

import (
	"encoding/binary"
	"math"

	"github.com/AHartTN/hypersphere/internal/model"
)

// Geometry type codes, EWKB's Z|M|SRID flags (0x80000000 | 0x40000000 |
// 0x20000000) folded into the base type per the PostGIS EWKB extension; the
// SRID flag marks the 4-byte SRID that putHeader writes after the type.
const (
	wkbPointZM      uint32 = 1 | 0xE0000000
	wkbLineStringZM uint32 = 2 | 0xE0000000
)

// srid is always zero: the substrate's geometry is an abstract embedding,
// not a georeferenced coordinate system.
const srid = 0

func putHeader(buf []byte, geomType uint32) int {
	buf[0] = 1 // little-endian byte order marker
	binary.LittleEndian.PutUint32(buf[1:5], geomType)
	binary.LittleEndian.PutUint32(buf[5:9], srid)
	return 9
}

// EncodePointZM produces the 41-byte little-endian EWKB PointZM encoding
// spec.md §6 specifies: 1-byte order + 4-byte type + 4-byte SRID + 4*8-byte
// coordinates.
func EncodePointZM(p model.Point4D) []byte {
	buf := make([]byte, 41)
	off := putHeader(buf, wkbPointZM)
	putCoord(buf[off:], p)
	return buf
}

func putCoord(buf []byte, p model.Point4D) {
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.Y))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(p.Z))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(p.M))
}

// EncodeLineStringZM encodes an ordered sequence of 4-D points as a
// LineStringZM, used for "trajectory-like" compositions (DESIGN.md Open
// Question #2).
func EncodeLineStringZM(points []model.Point4D) []byte {
	buf := make([]byte, 9+4+len(points)*32)
	off := putHeader(buf, wkbLineStringZM)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(points)))
	off += 4
	for _, p := range points {
		putCoord(buf[off:off+32], p)
		off += 32
	}
	return buf
}

// Centroid averages a set of points for the "point-like" composition
// geometry rule.
func Centroid(points []model.Point4D) model.Point4D {
	if len(points) == 0 {
		return model.Point4D{}
	}
	var x, y, z, m float64
	for _, p := range points {
		x += p.X
		y += p.Y
		z += p.Z
		m += p.M
	}
	n := float64(len(points))
	c := model.Point4D{X: x / n, Y: y / n, Z: z / n, M: m / n}
	norm := math.Sqrt(c.X*c.X + c.Y*c.Y + c.Z*c.Z + c.M*c.M)
	if norm == 0 {
		return model.Point4D{M: 1}
	}
	return model.Point4D{X: c.X / norm, Y: c.Y / norm, Z: c.Z / norm, M: c.M / norm}
}
