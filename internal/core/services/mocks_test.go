package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// ==================== Image Source ====================

// dirSource lists supported files directly inside the root.
type dirSource struct {
	changes chan domain.ImageChange
	err     error
}

func (s *dirSource) Discover(_ context.Context, root string, opts driven.DiscoverOptions) ([]driven.DiscoveredImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var images []driven.DiscoveredImage
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name(), opts.Extensions) {
			continue
		}
		images = append(images, driven.DiscoveredImage{Path: filepath.Join(root, e.Name())})
	}
	return images, nil
}

func (s *dirSource) Watch(_ context.Context, _ string, _ driven.DiscoverOptions) (<-chan domain.ImageChange, error) {
	if s.changes == nil {
		return nil, errors.New("watch not supported")
	}
	return s.changes, nil
}

// ==================== Preprocessor ====================

// halfPrep pretends every image was downscaled by half.
type halfPrep struct{}

func (halfPrep) Prepare(path string, data []byte) (domain.PreparedImage, error) {
	if string(data) == "corrupt" {
		return domain.PreparedImage{}, errors.New("decoding image: unknown format")
	}
	return domain.PreparedImage{
		Path: path, Data: data,
		Width: 100, Height: 50,
		SourceWidth: 200, SourceHeight: 100,
		Format: "png",
	}, nil
}

// ==================== OCR Engine ====================

// mockEngine returns canned spans keyed by file base name.
type mockEngine struct {
	mu      sync.Mutex
	spans   map[string][]domain.TextSpan
	errs    map[string]error
	calls   map[string]int
	active  int
	peak    int
	delay   time.Duration
	release chan struct{}
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		spans: make(map[string][]domain.TextSpan),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (e *mockEngine) Name() string { return "mock" }
func (e *mockEngine) Close() error { return nil }

func (e *mockEngine) Recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error) {
	name := filepath.Base(img.Path)

	e.mu.Lock()
	e.calls[name]++
	e.active++
	if e.active > e.peak {
		e.peak = e.active
	}
	release := e.release
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.active--
		e.mu.Unlock()
	}()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.errs[name]; err != nil {
		return nil, err
	}
	return append([]domain.TextSpan(nil), e.spans[name]...), nil
}

func (e *mockEngine) callCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[name]
}

func (e *mockEngine) totalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, n := range e.calls {
		total += n
	}
	return total
}

// ==================== Stores ====================

// failingStore fails span writes for one path.
type failingStore struct {
	*memory.ImageStore
	failPath string
}

func (s *failingStore) CompleteImage(ctx context.Context, rec *domain.ImageRecord, spans []domain.TextSpan) error {
	if rec.Path == s.failPath {
		return errors.New("disk I/O error")
	}
	return s.ImageStore.CompleteImage(ctx, rec, spans)
}

// ==================== Helpers ====================

// photoDir creates a temp directory of photo files and returns its resolved path.
func photoDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func newTestIngest(store driven.ImageStore, engine *mockEngine) *IngestService {
	return NewIngestService(store, &dirSource{}, engine, halfPrep{}, IngestConfig{Workers: 2})
}

func spanTexts(spans []domain.TextSpan) []string {
	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = s.Text
	}
	return texts
}

func resultPaths(results []domain.SearchResult) []string {
	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.Image.Path
	}
	return paths
}
