package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ImageService exposes stored image records.
type ImageService interface {
	// Get returns the record for a path with all its spans.
	// Returns domain.ErrNotFound if the path is not tracked.
	Get(ctx context.Context, path string) (*domain.ImageRecord, []domain.TextSpan, error)

	// GetByID returns the record for an ID with all its spans.
	GetByID(ctx context.Context, id string) (*domain.ImageRecord, []domain.TextSpan, error)

	// List returns records matching the filter.
	List(ctx context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error)

	// Stats summarises the store contents.
	Stats(ctx context.Context) (*domain.ImageStats, error)
}
