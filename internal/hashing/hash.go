// Package hashing computes the BLAKE3-256 content hash of constants and
// compositions from their canonical byte serialization (spec.md §4.2).
package hashing

import (
	"encoding/binary"

	"github.com/AHartTN/hypersphere/internal/model"
	"lukechampine.com/blake3"
)

// ConstantHash hashes a seed as u8(seed_type) || u64_LE(seed_value).
func ConstantHash(seed model.Seed) model.ContentHash {
	var buf [9]byte
	buf[0] = byte(seed.Type)
	binary.LittleEndian.PutUint64(buf[1:], seed.Value)
	return blake3.Sum256(buf[:])
}

// CompositionHash hashes an ordered run-length-encoded child sequence as the
// concatenation, per child, of child.content_hash (32 bytes) followed by
// i32_LE(multiplicity).
func CompositionHash(children []model.ChildRef) model.ContentHash {
	buf := make([]byte, 0, len(children)*36)
	for _, c := range children {
		buf = append(buf, c.ChildHash[:]...)
		var m [4]byte
		binary.LittleEndian.PutUint32(m[:], uint32(c.Multiplicity))
		buf = append(buf, m[:]...)
	}
	return blake3.Sum256(buf)
}
