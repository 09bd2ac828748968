package copywire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/stretchr/testify/require"
)

func TestWriteConstantsBatchFraming(t *testing.T) {
	var buf bytes.Buffer
	c := model.Constant{
		Seed:        model.Seed{Type: model.SeedByte, Value: 65},
		ContentHash: model.ContentHash{1, 2, 3},
		Hilbert:     model.Hilbert128{High: 7, Low: 9},
		Position:    model.Point4D{X: 0, Y: 0, Z: 0, M: 1},
	}
	require.NoError(t, WriteConstantsBatch(&buf, []model.Constant{c}))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, Magic[:]))

	// magic(11) + flags(4) + header-ext(4)
	off := 19
	fieldCountGot := binary.BigEndian.Uint16(data[off : off+2])
	require.Equal(t, uint16(6), fieldCountGot)
	off += 2

	// seed_value field: len(4)+8
	seedValueLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(8), seedValueLen)
	off += 4 + int(seedValueLen)

	// seed_type field
	seedTypeLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(4), seedTypeLen)
	off += 4 + int(seedTypeLen)

	// content_hash field
	hashLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(32), hashLen)
	off += 4 + int(hashLen)

	// hilbert_high
	hiLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(8), hiLen)
	off += 4 + int(hiLen)

	// hilbert_low
	loLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(8), loLen)
	off += 4 + int(loLen)

	// geometry
	geomLen := binary.BigEndian.Uint32(data[off : off+4])
	require.Equal(t, uint32(41), geomLen)
	off += 4 + int(geomLen)

	trailerGot := binary.BigEndian.Uint16(data[off : off+2])
	require.Equal(t, uint16(0xFFFF), trailerGot)
	off += 2
	require.Equal(t, len(data), off)
}
