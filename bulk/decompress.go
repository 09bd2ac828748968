package bulk

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/AHartTN/hypersphere/errkind"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// MaybeDecompress returns data unchanged unless it begins with the zstd
// frame magic, in which case it is fully decompressed. Bulk inputs are
// read entirely into memory regardless (callers already bound the working
// set before calling into this package), so there is no streaming benefit
// to decompressing lazily.
func MaybeDecompress(data []byte) ([]byte, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidInput, "zstd: %v", err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidInput, "zstd: %v", err)
	}
	return out, nil
}
