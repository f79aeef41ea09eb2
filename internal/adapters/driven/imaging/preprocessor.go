// Package imaging decodes photos and normalises them for OCR engines.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Preprocessor implements the interface.
var _ driven.Preprocessor = (*Preprocessor)(nil)

// Preprocessor decodes any supported format, downscales oversized images and
// re-encodes them as PNG.
type Preprocessor struct {
	maxDimension int
}

// NewPreprocessor creates a preprocessor. A maxDimension of zero disables downscaling.
func NewPreprocessor(maxDimension int) *Preprocessor {
	if maxDimension < 0 {
		maxDimension = 0
	}
	return &Preprocessor{maxDimension: maxDimension}
}

// Prepare decodes data and returns PNG pixels ready for recognition.
func (p *Preprocessor) Prepare(path string, data []byte) (domain.PreparedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return domain.PreparedImage{}, fmt.Errorf("%w: %s: unrecognised image format", domain.ErrUnsupportedType, path)
		}
		return domain.PreparedImage{}, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return domain.PreparedImage{}, fmt.Errorf("decode %s: empty image", path)
	}

	out := img
	w, h := fitWithin(srcW, srcH, p.maxDimension)
	if w != srcW || h != srcH {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return domain.PreparedImage{}, fmt.Errorf("encode %s: %w", path, err)
	}

	return domain.PreparedImage{
		Path:         path,
		Data:         buf.Bytes(),
		Width:        w,
		Height:       h,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Format:       format,
	}, nil
}

// fitWithin scales w x h so the longest side is at most limit, keeping the aspect ratio.
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
