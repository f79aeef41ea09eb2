package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DiscoverOptions controls photo discovery.
type DiscoverOptions struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// IncludeHidden includes dot-files and dot-directories.
	IncludeHidden bool

	// Extensions are accepted file extensions without the dot, lower case.
	Extensions []string
}

// DiscoveredImage is a photo found by an ImageSource.
type DiscoveredImage struct {
	// Path is absolute and symlink-resolved.
	Path string
}

// ImageSource enumerates photos and reports changes to them.
type ImageSource interface {
	// Discover walks root and returns supported photos ordered by path.
	Discover(ctx context.Context, root string, opts DiscoverOptions) ([]DiscoveredImage, error)

	// Watch streams changes to supported photos under root until ctx is cancelled.
	Watch(ctx context.Context, root string, opts DiscoverOptions) (<-chan domain.ImageChange, error)
}
