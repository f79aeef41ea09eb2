package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
	lastText string
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastText = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockImageService is a mock implementation of driving.ImageService.
type mockImageService struct {
	images map[string]*domain.ImageRecord
	spans  map[string][]domain.TextSpan
	stats  *domain.ImageStats
	err    error
}

func (m *mockImageService) Get(
	_ context.Context, path string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	for _, rec := range m.images {
		if rec.Path == path {
			return rec, m.spans[rec.ID], nil
		}
	}
	return nil, nil, domain.ErrNotFound
}

func (m *mockImageService) GetByID(
	_ context.Context, id string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	rec, ok := m.images[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return rec, m.spans[id], nil
}

func (m *mockImageService) List(_ context.Context, _ domain.ImageFilter) ([]domain.ImageRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ImageRecord
	for _, rec := range m.images {
		out = append(out, *rec)
	}
	return out, nil
}

func (m *mockImageService) Stats(_ context.Context) (*domain.ImageStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &domain.ImageStats{}, nil
	}
	return m.stats, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report   *domain.IngestReport
	err      error
	lastOpts domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return domain.NewIngestReport(opts.Directory), nil
	}
	return m.report, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, path string, _ bool) (domain.IngestProgress, error) {
	return domain.IngestProgress{Path: path, Outcome: domain.OutcomeProcessed}, m.err
}
