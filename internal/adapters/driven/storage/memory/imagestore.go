package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure ImageStore implements the interface.
var _ driven.ImageStore = (*ImageStore)(nil)

// ImageStore is an in-memory implementation of driven.ImageStore.
// It supports substring search only; full-text queries return
// domain.ErrSearchUnavailable.
type ImageStore struct {
	mu     sync.RWMutex
	images map[string]domain.ImageRecord
	paths  map[string]string
	spans  map[string][]domain.TextSpan
}

// NewImageStore creates a new in-memory image store.
func NewImageStore() *ImageStore {
	return &ImageStore{
		images: make(map[string]domain.ImageRecord),
		paths:  make(map[string]string),
		spans:  make(map[string][]domain.TextSpan),
	}
}

// GetImage retrieves a record by path.
func (s *ImageStore) GetImage(_ context.Context, path string) (*domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.paths[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := s.images[id]
	return &rec, nil
}

// GetImageByID retrieves a record by ID.
func (s *ImageStore) GetImageByID(_ context.Context, id string) (*domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.images[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// SaveImage stores or updates a record.
func (s *ImageStore) SaveImage(_ context.Context, rec *domain.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(*rec)
}

// CompleteImage replaces spans and marks the record done.
func (s *ImageStore) CompleteImage(_ context.Context, rec *domain.ImageRecord, spans []domain.TextSpan) error {
	done := *rec
	done.Status = domain.StatusDone
	done.Error = ""

	stored := make([]domain.TextSpan, len(spans))
	for i, span := range spans {
		if span.ID == "" {
			span.ID = uuid.NewString()
		}
		span.ImageID = done.ID
		span.Position = i
		stored[i] = span
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(done); err != nil {
		return err
	}
	s.spans[done.ID] = stored
	return nil
}

// FailImage marks the record failed and drops its spans.
func (s *ImageStore) FailImage(_ context.Context, rec *domain.ImageRecord) error {
	failed := *rec
	failed.Status = domain.StatusFailed

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(failed); err != nil {
		return err
	}
	delete(s.spans, failed.ID)
	return nil
}

// GetSpans returns all spans for an image.
func (s *ImageStore) GetSpans(_ context.Context, imageID string) ([]domain.TextSpan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spans := s.spans[imageID]
	if len(spans) == 0 {
		return nil, nil
	}
	return append([]domain.TextSpan(nil), spans...), nil
}

// ListImages returns records matching the filter ordered by path.
func (s *ImageStore) ListImages(_ context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var images []domain.ImageRecord
	for _, rec := range s.images {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if !inScope(rec.Dir, filter.Directory) {
			continue
		}
		images = append(images, rec)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Path < images[j].Path })
	return images, nil
}

// ListSpans returns every span of done images within directory.
func (s *ImageStore) ListSpans(_ context.Context, directory string) ([]domain.SpanMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.collect(directory, func(domain.TextSpan) (float64, bool) { return 0, true })
	return matches, nil
}

// SearchSpans performs case-insensitive substring search.
func (s *ImageStore) SearchSpans(_ context.Context, q driven.SpanQuery) ([]domain.SpanMatch, error) {
	if q.Mode != domain.MatchSubstring {
		return nil, fmt.Errorf("%w: %s", domain.ErrSearchUnavailable, q.Mode)
	}
	needle := strings.ToLower(q.Text)

	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.collect(q.Directory, func(span domain.TextSpan) (float64, bool) {
		return span.Confidence, strings.Contains(strings.ToLower(span.Text), needle)
	})
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// Stats summarises stored records and spans.
func (s *ImageStore) Stats(_ context.Context) (*domain.ImageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.ImageStats{Total: len(s.images)}
	for _, rec := range s.images {
		switch rec.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusDone:
			stats.Done++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	for _, spans := range s.spans {
		stats.Spans += len(spans)
	}
	return stats, nil
}

// put stores rec keyed by ID. Caller holds the write lock.
func (s *ImageStore) put(rec domain.ImageRecord) error {
	if rec.ID == "" || rec.Path == "" {
		return fmt.Errorf("saving image: %w", domain.ErrInvalidInput)
	}
	if id, ok := s.paths[rec.Path]; ok && id != rec.ID {
		return fmt.Errorf("saving image: path %s already tracked as %s", rec.Path, id)
	}
	if old, ok := s.images[rec.ID]; ok {
		if old.Path != rec.Path {
			delete(s.paths, old.Path)
		}
		rec.CreatedAt = old.CreatedAt
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Status == "" {
		rec.Status = domain.StatusPending
	}
	if rec.Dir == "" {
		rec.Dir = filepath.Dir(rec.Path)
	}
	if rec.Name == "" {
		rec.Name = filepath.Base(rec.Path)
	}
	s.images[rec.ID] = rec
	s.paths[rec.Path] = rec.ID
	return nil
}

// collect gathers scored spans of done images ordered by path then position.
// Caller holds the read lock.
func (s *ImageStore) collect(directory string, match func(domain.TextSpan) (float64, bool)) []domain.SpanMatch {
	var matches []domain.SpanMatch
	for id, spans := range s.spans {
		rec := s.images[id]
		if rec.Status != domain.StatusDone || !inScope(rec.Dir, directory) {
			continue
		}
		for _, span := range spans {
			if score, ok := match(span); ok {
				matches = append(matches, domain.SpanMatch{Image: rec, Span: span, Score: score})
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Image.Path != matches[j].Image.Path {
			return matches[i].Image.Path < matches[j].Image.Path
		}
		return matches[i].Span.Position < matches[j].Span.Position
	})
	return matches
}

func inScope(dir, directory string) bool {
	if directory == "" {
		return true
	}
	root := filepath.Clean(directory)
	if dir == root {
		return true
	}
	return strings.HasPrefix(dir, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}
