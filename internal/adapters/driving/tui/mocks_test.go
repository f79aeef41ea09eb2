package tui

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(
		ctx context.Context, query string, opts domain.SearchOptions,
	) ([]domain.SearchResult, error)
}

func (m *MockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return nil, nil
}

// MockImageService implements driving.ImageService for testing.
type MockImageService struct {
	GetByIDFunc func(ctx context.Context, id string) (*domain.ImageRecord, []domain.TextSpan, error)
	StatsFunc   func(ctx context.Context) (*domain.ImageStats, error)
}

func (m *MockImageService) Get(
	_ context.Context, _ string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	return nil, nil, domain.ErrNotFound
}

func (m *MockImageService) GetByID(
	ctx context.Context, id string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil, domain.ErrNotFound
}

func (m *MockImageService) List(_ context.Context, _ domain.ImageFilter) ([]domain.ImageRecord, error) {
	return nil, nil
}

func (m *MockImageService) Stats(ctx context.Context) (*domain.ImageStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &domain.ImageStats{}, nil
}
