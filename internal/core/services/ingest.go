package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestConfig holds the settings an ingest run depends on.
type IngestConfig struct {
	// Extensions are the accepted photo extensions.
	Extensions []string

	// Workers bounds concurrent OCR calls. Zero uses the number of CPUs.
	Workers int

	// MinConfidence drops spans scoring below it.
	MinConfidence float64

	// Timeout bounds each recognition call. Zero disables.
	Timeout time.Duration
}

// IngestConfigFromSettings derives an IngestConfig from application settings.
func IngestConfigFromSettings(settings *domain.AppSettings) IngestConfig {
	return IngestConfig{
		Extensions:    settings.Ingest.Extensions,
		Workers:       settings.Ingest.Workers,
		MinConfidence: settings.OCR.MinConfidence,
		Timeout:       time.Duration(settings.OCR.TimeoutSeconds) * time.Second,
	}
}

// IngestService runs photos through an OCR engine and stores the results.
// OCR calls run concurrently; store writes are serialised.
type IngestService struct {
	images driven.ImageStore
	source driven.ImageSource
	engine driven.OCREngine
	prep   driven.Preprocessor
	config IngestConfig

	// writeMu serialises store writes.
	writeMu sync.Mutex

	mu       sync.Mutex
	running  map[string]struct{}
	inFlight map[string]struct{}

	now   func() time.Time
	newID func() string
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	images driven.ImageStore,
	source driven.ImageSource,
	engine driven.OCREngine,
	prep driven.Preprocessor,
	config IngestConfig,
) *IngestService {
	if len(config.Extensions) == 0 {
		config.Extensions = domain.DefaultExtensions
	}
	return &IngestService{
		images:   images,
		source:   source,
		engine:   engine,
		prep:     prep,
		config:   config,
		running:  make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Ingest discovers photos under opts.Directory and processes new or changed ones.
func (s *IngestService) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	logger.Section("Ingest")

	dir, err := resolveDir(opts.Directory)
	if err != nil {
		return nil, err
	}

	if !s.claimDirectory(dir) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, dir)
	}
	defer s.releaseDirectory(dir)

	start := time.Now()
	report := domain.NewIngestReport(dir)

	discovered, err := s.source.Discover(ctx, dir, driven.DiscoverOptions{
		Recursive:     opts.Recursive,
		IncludeHidden: opts.IncludeHidden,
		Extensions:    s.config.Extensions,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering images: %w", err)
	}

	paths := dedupePaths(discovered)
	report.Discovered = len(paths)
	logger.Info("Discovered %d images in %s", len(paths), dir)

	workers := opts.Workers
	if workers <= 0 {
		workers = s.config.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Debug("Using %d workers, force=%v", workers, opts.Force)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var reportMu sync.Mutex
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			progress, err := s.process(gctx, path, opts.Force)
			if err != nil {
				return err
			}

			reportMu.Lock()
			report.Record(progress)
			progress.Done = report.Handled()
			reportMu.Unlock()

			if opts.Progress != nil {
				opts.Progress(progress)
			}
			return nil
		})
	}

	err = g.Wait()
	report.Duration = time.Since(start)
	logger.Info("Ingest finished: %d processed, %d skipped, %d failed, %d spans in %s",
		report.Processed, report.Skipped, report.Failed, report.Spans, report.Duration)

	if err != nil {
		return report, err
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

// IngestFile processes a single photo with the same skip and failure rules.
func (s *IngestService) IngestFile(ctx context.Context, path string, force bool) (domain.IngestProgress, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return domain.IngestProgress{Path: path}, err
	}
	if !hasExtension(resolved, s.config.Extensions) {
		return domain.IngestProgress{Path: resolved}, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, resolved)
	}
	progress, err := s.process(ctx, resolved, force)
	progress.Done = 1
	return progress, err
}

func (s *IngestService) claimDirectory(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[dir]; ok {
		return false
	}
	s.running[dir] = struct{}{}
	return true
}

func (s *IngestService) releaseDirectory(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, dir)
}

// process runs one image through the pipeline. Only store failures and
// cancellation are returned as errors; OCR failures are part of the progress.
func (s *IngestService) process(ctx context.Context, path string, force bool) (domain.IngestProgress, error) {
	progress := domain.IngestProgress{Path: path, Outcome: domain.OutcomeSkipped}

	// One pass per path at a time, across runs and watch events
	s.mu.Lock()
	if _, busy := s.inFlight[path]; busy {
		s.mu.Unlock()
		logger.Debug("Skipping %s: already being processed", path)
		return progress, nil
	}
	s.inFlight[path] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, path)
		s.mu.Unlock()
	}()

	rec, err := s.images.GetImage(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec = domain.NewImageRecord(s.newID(), path, s.now())
		if err := s.write(ctx, path, func() error { return s.images.SaveImage(ctx, rec) }); err != nil {
			return progress, err
		}
	case err != nil:
		return progress, fmt.Errorf("loading record for %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return s.fail(ctx, rec, fmt.Errorf("reading file: %w", err))
	}

	var data []byte
	if !force && rec.Status == domain.StatusDone {
		if rec.Unchanged(info.Size(), info.ModTime()) {
			logger.Debug("Skipping %s: unchanged", path)
			return progress, nil
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return s.fail(ctx, rec, fmt.Errorf("reading file: %w", err))
		}
		if contentHash(data) == rec.ContentHash {
			logger.Debug("Skipping %s: content unchanged, refreshing mtime", path)
			rec.Size = info.Size()
			rec.ModTime = info.ModTime()
			rec.UpdatedAt = s.now()
			err := s.write(ctx, path, func() error { return s.images.SaveImage(ctx, rec) })
			return progress, err
		}
	}

	if data == nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return s.fail(ctx, rec, fmt.Errorf("reading file: %w", err))
		}
	}
	rec.Size = info.Size()
	rec.ModTime = info.ModTime()
	rec.ContentHash = contentHash(data)

	prepared, err := s.prep.Prepare(path, data)
	if err != nil {
		return s.fail(ctx, rec, err)
	}
	rec.Width = prepared.SourceWidth
	rec.Height = prepared.SourceHeight

	spans, err := s.recognize(ctx, prepared)
	if err != nil {
		if ctx.Err() != nil {
			return progress, ctx.Err()
		}
		return s.fail(ctx, rec, err)
	}
	spans = s.cleanSpans(spans, prepared.ScaleFactor())

	now := s.now()
	rec.Engine = s.engine.Name()
	rec.Error = ""
	rec.ProcessedAt = now
	rec.UpdatedAt = now
	if err := s.write(ctx, path, func() error { return s.images.CompleteImage(ctx, rec, spans) }); err != nil {
		return progress, err
	}
	rec.Status = domain.StatusDone

	logger.Debug("Processed %s: %d spans", path, len(spans))
	progress.Outcome = domain.OutcomeProcessed
	progress.Spans = len(spans)
	return progress, nil
}

func (s *IngestService) recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	return s.engine.Recognize(ctx, img)
}

// fail records an OCR failure against the image. The failure is returned in
// the progress; only a store error is returned as an error.
func (s *IngestService) fail(ctx context.Context, rec *domain.ImageRecord, cause error) (domain.IngestProgress, error) {
	failure := fmt.Errorf("%w: %w", domain.ErrOCRFailure, cause)
	logger.Warn("OCR failed for %s: %v", rec.Path, cause)

	now := s.now()
	rec.Status = domain.StatusFailed
	rec.Error = cause.Error()
	rec.Engine = s.engine.Name()
	rec.ProcessedAt = now
	rec.UpdatedAt = now

	progress := domain.IngestProgress{Path: rec.Path, Outcome: domain.OutcomeFailed, Err: failure}
	if err := s.write(ctx, rec.Path, func() error { return s.images.FailImage(ctx, rec) }); err != nil {
		return progress, err
	}
	return progress, nil
}

// write runs fn under the writer lock and tags failures as store write errors.
func (s *IngestService) write(ctx context.Context, path string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := fn(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("Store write failed for %s: %v", path, err)
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreWrite, path, err)
	}
	return nil
}

// cleanSpans trims text, drops empty and low-confidence spans and maps regions
// back to source-image pixels.
func (s *IngestService) cleanSpans(spans []domain.TextSpan, scale float64) []domain.TextSpan {
	cleaned := make([]domain.TextSpan, 0, len(spans))
	for _, span := range spans {
		span.Text = strings.TrimSpace(span.Text)
		if span.Text == "" {
			continue
		}
		span.Confidence = clamp01(span.Confidence)
		if span.Confidence < s.config.MinConfidence {
			continue
		}
		span.Region = span.Region.Scale(scale)
		span.ID = s.newID()
		span.Position = len(cleaned)
		cleaned = append(cleaned, span)
	}
	return cleaned
}

// dedupePaths resolves each discovered path to its identity, so a photo and a
// symlink to it are one image.
func dedupePaths(images []driven.DiscoveredImage) []string {
	seen := make(map[string]struct{}, len(images))
	paths := make([]string, 0, len(images))
	for _, img := range images {
		path, err := resolvePath(img.Path)
		if err != nil {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths
}

// contentHash fingerprints file bytes.
func contentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
