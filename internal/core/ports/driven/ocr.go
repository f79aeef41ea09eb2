package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// OCREngine recognises text in images.
// Adapters map engine-specific output into domain.TextSpan so nothing
// outside the adapter sees the engine's own types.
type OCREngine interface {
	// Name identifies the engine, stored on each processed record.
	Name() string

	// Recognize returns spans with regions in the prepared image's coordinates.
	// Errors are opaque engine failures.
	Recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error)

	// Close releases engine resources.
	Close() error
}

// Preprocessor decodes raw file bytes into a PreparedImage.
type Preprocessor interface {
	// Prepare decodes data, downscales it if needed and re-encodes it.
	Prepare(path string, data []byte) (domain.PreparedImage, error)
}
