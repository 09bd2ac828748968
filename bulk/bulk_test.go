package bulk

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
	"github.com/AHartTN/hypersphere/store/memstore"
)

// recordingBulkStore wraps memstore with a CopyBulkConstants that records
// every row it was handed, so tests can assert flushBatch builds rows with
// Position populated (geom's source) rather than silently dropping it.
type recordingBulkStore struct {
	*memstore.Store
	rows []store.BulkConstantRow
}

func (r *recordingBulkStore) CopyBulkConstants(ctx context.Context, rows []store.BulkConstantRow) (int, error) {
	r.rows = append(r.rows, rows...)
	return len(rows), nil
}

func TestFlushBatchRoutesThroughBulkInserterWithPosition(t *testing.T) {
	s := &recordingBulkStore{Store: memstore.New()}
	ctx := context.Background()

	stored, err := UnicodeBlock(ctx, s, 0x41, 0x45, Options{BatchSize: 8})
	require.NoError(t, err)
	require.EqualValues(t, 5, stored)
	require.Len(t, s.rows, 5)
	for _, row := range s.rows {
		require.Equal(t, model.SeedUnicodeCodepoint, row.Seed.Type)
		require.NotZero(t, row.ContentHash)
		// Position must be carried through to the bulk row: it is
		// CopyBulkConstants' only source for the NOT NULL geom column.
		require.False(t, row.Position == model.Point4D{})
	}
}

func TestUnicodeBlockStoresEveryValidCodepoint(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	stored, err := UnicodeBlock(ctx, s, 0x40, 0x60, Options{BatchSize: 4})
	require.NoError(t, err)
	require.EqualValues(t, 0x60-0x40+1, stored)
}

func TestUnicodeBlockSkipsSurrogateRange(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	stored, err := UnicodeBlock(ctx, s, surrogateStart-2, surrogateEnd+2, Options{BatchSize: 4})
	require.NoError(t, err)
	// 2 before + 2 after, surrogate range itself skipped entirely.
	require.EqualValues(t, 4, stored)
}

func TestF16ToF32KnownValues(t *testing.T) {
	require.InDelta(t, 1.0, F16ToF32(0x3C00), 1e-6)
	require.InDelta(t, -2.0, F16ToF32(0xC000), 1e-6)
	require.InDelta(t, 0.0, F16ToF32(0x0000), 1e-6)
}

func buildSafeTensor(t *testing.T, name string, values []float32) []byte {
	t.Helper()
	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	header := `{"` + name + `":{"dtype":"F32","shape":[` +
		"4" + `],"data_offsets":[0,` + "16" + `]}}`
	var buf []byte
	lenBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(lenBuf, uint64(len(header)))
	buf = append(buf, lenBuf...)
	buf = append(buf, header...)
	buf = append(buf, raw...)
	return buf
}

func TestParseSafeTensorHeaderRoundTrips(t *testing.T) {
	data := buildSafeTensor(t, "weights", []float32{1, 2, 3, 4})
	entries, dataStart, warnings, err := ParseSafeTensorHeader(data)
	require.NoError(t, err)
	require.NoError(t, warnings)
	require.Len(t, entries, 1)
	require.Equal(t, "weights", entries[0].Name)
	require.Equal(t, "F32", entries[0].Dtype)

	values := tensorValuesF32(data[dataStart:], entries[0])
	require.Equal(t, []float32{1, 2, 3, 4}, values)
}

func TestParseSafeTensorHeaderRejectsTruncated(t *testing.T) {
	_, _, _, err := ParseSafeTensorHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestTensorIngestsSupportedDtype(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	data := buildSafeTensor(t, "w", []float32{1, 0, -1, 2})

	results, err := Tensor(ctx, s, data, SafeTensorOptions{Options: Options{BatchSize: 2}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.EqualValues(t, 4, results[0].Stored)
}

func TestTensorAppliesSparsityThreshold(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	data := buildSafeTensor(t, "w", []float32{0.001, 5, 0.002, -5})

	results, err := Tensor(ctx, s, data, SafeTensorOptions{
		Options:                Options{BatchSize: 2},
		SparsityThresholdValue: 1.0,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.EqualValues(t, 2, results[0].Stored)
	require.EqualValues(t, 2, results[0].Skipped)
}

func TestSparsityThresholdPicksPercentile(t *testing.T) {
	values := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tau := SparsityThreshold(values, 50)
	require.InDelta(t, 4, tau, 1)
}
