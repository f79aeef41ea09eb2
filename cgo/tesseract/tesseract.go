//go:build cgo && tesseract

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Available reports whether this build links Tesseract.
const Available = true

// Engine recognises text with a fresh gosseract client per image.
// gosseract clients are not safe for concurrent use.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract engine for the given language codes.
func New(languages []string) (*Engine, error) {
	return &Engine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return "tesseract" }

// Recognize returns one span per detected text line.
func (e *Engine) Recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img.Data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spans := make([]domain.TextSpan, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		spans = append(spans, domain.TextSpan{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			Region: domain.Region{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
		})
	}
	return spans, nil
}

// Close releases resources. Clients are closed per call.
func (e *Engine) Close() error {
	return nil
}
