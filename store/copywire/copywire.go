// Package copywire implements the fixed on-wire encoding spec.md §6 defines
// for streaming constants batches into Postgres via the binary COPY
// protocol: an 11-byte magic, a zero flags word, a zero header-extension
// length, then per row a field count followed by length-prefixed
// big-endian fields, terminated by a 0xFFFF trailer.
//
// This mirrors the length-prefixed TLV style the teacher's indexmeta
// package uses for on-disk metadata headers, specialized to Postgres's
// COPY BINARY row format.
package copywire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store/geo"
)

// Magic is the 11-byte signature every COPY BINARY stream begins with.
var Magic = [11]byte{'P', 'G', 'C', 'O', 'P', 'Y', '\n', 0xFF, '\r', '\n', 0x00}

const fieldCount = int16(6)
const trailer = uint16(0xFFFF)

// WriteHeader emits the magic, flags, and header-extension-length preamble.
func WriteHeader(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	var zero32 [8]byte // flags (4 bytes) + header extension length (4 bytes)
	_, err := w.Write(zero32[:])
	return err
}

// WriteTrailer emits the 0xFFFF end-of-stream marker.
func WriteTrailer(w io.Writer) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], trailer)
	_, err := w.Write(b[:])
	return err
}

func writeField(w *bufio.Writer, field []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(field)
	return err
}

// WriteConstantRow encodes one constants-batch row: seed_value (int64 BE),
// seed_type (int32 BE), content_hash (32 B), hilbert_high (int64 BE),
// hilbert_low (int64 BE), geometry (41-byte EWKB PointZM).
func WriteConstantRow(w *bufio.Writer, c model.Constant) error {
	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(fieldCount))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}

	var seedValue [8]byte
	binary.BigEndian.PutUint64(seedValue[:], c.Seed.Value)
	if err := writeField(w, seedValue[:]); err != nil {
		return err
	}

	var seedType [4]byte
	binary.BigEndian.PutUint32(seedType[:], uint32(c.Seed.Type))
	if err := writeField(w, seedType[:]); err != nil {
		return err
	}

	if err := writeField(w, c.ContentHash[:]); err != nil {
		return err
	}

	var hi [8]byte
	binary.BigEndian.PutUint64(hi[:], c.Hilbert.High)
	if err := writeField(w, hi[:]); err != nil {
		return err
	}

	var lo [8]byte
	binary.BigEndian.PutUint64(lo[:], c.Hilbert.Low)
	if err := writeField(w, lo[:]); err != nil {
		return err
	}

	return writeField(w, geo.EncodePointZM(c.Position))
}

// WriteConstantsBatch writes a full COPY BINARY stream (header, rows,
// trailer) for the given constants.
func WriteConstantsBatch(w io.Writer, constants []model.Constant) error {
	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw); err != nil {
		return err
	}
	for _, c := range constants {
		if err := WriteConstantRow(bw, c); err != nil {
			return err
		}
	}
	if err := WriteTrailer(bw); err != nil {
		return err
	}
	return bw.Flush()
}
