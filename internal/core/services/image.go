package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure ImageService implements the interface.
var _ driving.ImageService = (*ImageService)(nil)

// ImageService exposes stored image records.
type ImageService struct {
	images driven.ImageStore
}

// NewImageService creates a new image service.
func NewImageService(images driven.ImageStore) *ImageService {
	return &ImageService{images: images}
}

// Get returns the record for a path with all its spans.
func (s *ImageService) Get(ctx context.Context, path string) (*domain.ImageRecord, []domain.TextSpan, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.images.GetImage(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}
	return s.withSpans(ctx, rec)
}

// GetByID returns the record for an ID with all its spans.
func (s *ImageService) GetByID(ctx context.Context, id string) (*domain.ImageRecord, []domain.TextSpan, error) {
	rec, err := s.images.GetImageByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.withSpans(ctx, rec)
}

// List returns records matching the filter.
func (s *ImageService) List(ctx context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.Directory != "" {
		dir, err := resolvePath(filter.Directory)
		if err != nil {
			return nil, err
		}
		filter.Directory = dir
	}
	return s.images.ListImages(ctx, filter)
}

// Stats summarises the store contents.
func (s *ImageService) Stats(ctx context.Context) (*domain.ImageStats, error) {
	return s.images.Stats(ctx)
}

func (s *ImageService) withSpans(
	ctx context.Context, rec *domain.ImageRecord,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	spans, err := s.images.GetSpans(ctx, rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spans: %w", err)
	}
	return rec, spans, nil
}
