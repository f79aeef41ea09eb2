//go:build !cgo || !tesseract

package tesseract

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Available reports whether this build links Tesseract.
const Available = false

// Engine is a stub for builds without Tesseract.
type Engine struct{}

// New returns an error explaining how to enable the engine.
func New(_ []string) (*Engine, error) {
	return nil, fmt.Errorf("%w: tesseract support not compiled in (rebuild with -tags tesseract)",
		domain.ErrEngineUnavailable)
}

// Name returns the engine name.
func (e *Engine) Name() string { return "tesseract" }

// Recognize always fails.
func (e *Engine) Recognize(_ context.Context, _ domain.PreparedImage) ([]domain.TextSpan, error) {
	return nil, domain.ErrEngineUnavailable
}

// Close does nothing.
func (e *Engine) Close() error { return nil }
