package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SpanQuery describes a store-side span search.
type SpanQuery struct {
	// Text is the trimmed, non-empty query.
	Text string

	// Mode is MatchSubstring or MatchFullText. Fuzzy matching runs in core.
	Mode domain.MatchMode

	// Directory restricts to images at or below it when set.
	Directory string
}

// ImageStore persists image records and their text spans.
// Backed by SQLite for durable local storage.
type ImageStore interface {
	// GetImage retrieves a record by absolute path.
	// Returns domain.ErrNotFound if the path is not tracked.
	GetImage(ctx context.Context, path string) (*domain.ImageRecord, error)

	// GetImageByID retrieves a record by ID.
	// Returns domain.ErrNotFound if the ID does not exist.
	GetImageByID(ctx context.Context, id string) (*domain.ImageRecord, error)

	// SaveImage creates or updates a record keyed by path.
	SaveImage(ctx context.Context, rec *domain.ImageRecord) error

	// CompleteImage atomically replaces the record's spans and stores the record
	// with status done. Spans from earlier passes are removed.
	CompleteImage(ctx context.Context, rec *domain.ImageRecord, spans []domain.TextSpan) error

	// FailImage stores the record with status failed and removes any spans.
	FailImage(ctx context.Context, rec *domain.ImageRecord) error

	// GetSpans returns all spans for an image ordered by position.
	GetSpans(ctx context.Context, imageID string) ([]domain.TextSpan, error)

	// ListImages returns records matching the filter ordered by path.
	ListImages(ctx context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error)

	// ListSpans returns every span of done images within directory (all when empty),
	// ordered by image path then position.
	ListSpans(ctx context.Context, directory string) ([]domain.SpanMatch, error)

	// SearchSpans returns spans of done images matching the query.
	// Returns domain.ErrInvalidQuery for malformed full-text syntax and
	// domain.ErrSearchUnavailable if the mode is not supported.
	SearchSpans(ctx context.Context, q SpanQuery) ([]domain.SpanMatch, error)

	// Stats summarises stored records and spans.
	Stats(ctx context.Context) (*domain.ImageStats, error)
}
