package pipelines

import (
	"context"
	"fmt"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// ImagePipeline ingests a (width, height, pixels) raster as a composition of
// row compositions. Each row is a composition of pixel constants (RLE over
// runs of the same pixel value); the image is a composition of rows (RLE
// over runs of identical rows, e.g. solid fills). Width and height are
// carried on the root's type_ref (spec.md §4.5).
//
// pixels is row-major, len(pixels) == width*height; each entry is an
// opaque packed pixel value (e.g. 0xAARRGGBB) addressed as an INTEGER_64
// seed.
func ImagePipeline(ctx context.Context, st store.NodeStore, width, height int, pixels []uint32) (int64, error) {
	if width <= 0 || height <= 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "image dimensions must be positive, got %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "pixel count %d does not match %dx%d", len(pixels), width, height)
	}

	rows := make([]addr.Resolved, height)
	for y := 0; y < height; y++ {
		rowPixels := pixels[y*width : (y+1)*width]
		seeds := make([]model.Seed, width)
		for x, px := range rowPixels {
			seeds[x] = model.Seed{Type: model.SeedInteger64, Value: uint64(px)}
		}
		children, err := addr.InsertScalarSequence(ctx, st, seeds)
		if err != nil {
			return 0, err
		}
		r, err := addr.InsertComposition(ctx, st, children, nil, model.GeometryNone)
		if err != nil {
			return 0, err
		}
		rows[y] = r
	}

	typeID, err := addr.BuildTypeAtom(ctx, st, map[string]string{
		"width":  fmt.Sprintf("%d", width),
		"height": fmt.Sprintf("%d", height),
	})
	if err != nil {
		return 0, err
	}

	root, err := addr.InsertComposition(ctx, st, rows, &typeID, model.GeometryNone)
	if err != nil {
		return 0, err
	}
	return addr.IDOf(root.Child), nil
}
