package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// DefaultSettle is how long a path must be quiet before it is processed.
const DefaultSettle = 500 * time.Millisecond

// WatchService keeps the store in step with a directory.
type WatchService struct {
	ingest     driving.IngestService
	source     driven.ImageSource
	extensions []string
	settle     time.Duration
}

// NewWatchService creates a new watch service.
func NewWatchService(ingest driving.IngestService, source driven.ImageSource, extensions []string) *WatchService {
	if len(extensions) == 0 {
		extensions = domain.DefaultExtensions
	}
	return &WatchService{
		ingest:     ingest,
		source:     source,
		extensions: extensions,
		settle:     DefaultSettle,
	}
}

// SetSettle overrides the quiet period applied to change events.
func (s *WatchService) SetSettle(d time.Duration) {
	s.settle = d
}

// Watch ingests the directory, then processes changes until ctx is cancelled.
// Per-image failures are logged; store failures stop the watcher.
func (s *WatchService) Watch(ctx context.Context, opts domain.WatchOptions) error {
	logger.Section("Watch")

	dir, err := resolveDir(opts.Directory)
	if err != nil {
		return err
	}
	opts.Directory = dir

	if err := s.rescan(ctx, opts); err != nil {
		return err
	}

	changes, err := s.source.Watch(ctx, dir, driven.DiscoverOptions{
		Recursive:     opts.Recursive,
		IncludeHidden: opts.IncludeHidden,
		Extensions:    s.extensions,
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	var rescans <-chan struct{}
	if opts.Rescan != "" {
		tick := make(chan struct{}, 1)
		c := cron.New()
		if _, err := c.AddFunc(opts.Rescan, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("%w: rescan schedule %q: %w", domain.ErrInvalidInput, opts.Rescan, err)
		}
		c.Start()
		defer c.Stop()
		rescans = tick
		logger.Info("Rescanning %s on schedule %q", dir, opts.Rescan)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(s.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Type == domain.ChangeDeleted {
				logger.Debug("Ignoring removal of %s", change.Path)
				delete(pending, change.Path)
				continue
			}
			pending[change.Path] = time.Now().Add(s.settle)

		case now := <-ticker.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				if err := s.handleFile(ctx, path, opts.Progress); err != nil {
					return err
				}
			}

		case <-rescans:
			if err := s.rescan(ctx, opts); err != nil {
				return err
			}
		}
	}
}

func (s *WatchService) tickInterval() time.Duration {
	interval := s.settle / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// rescan runs a full ingest. A concurrent run for the same directory is not an error.
func (s *WatchService) rescan(ctx context.Context, opts domain.WatchOptions) error {
	report, err := s.ingest.Ingest(ctx, domain.IngestOptions{
		Directory:     opts.Directory,
		Recursive:     opts.Recursive,
		IncludeHidden: opts.IncludeHidden,
		Progress:      opts.Progress,
	})
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		logger.Debug("Rescan skipped: %v", err)
		return nil
	case ctx.Err() != nil:
		return nil
	case err != nil:
		return err
	}
	logger.Info("Rescan of %s: %d processed, %d skipped, %d failed",
		opts.Directory, report.Processed, report.Skipped, report.Failed)
	return nil
}

// handleFile ingests one changed path. Only store failures are returned.
func (s *WatchService) handleFile(ctx context.Context, path string, progress func(domain.IngestProgress)) error {
	if !hasExtension(path, s.extensions) {
		return nil
	}
	p, err := s.ingest.IngestFile(ctx, path, false)
	switch {
	case errors.Is(err, domain.ErrStoreWrite):
		return err
	case ctx.Err() != nil:
		return nil
	case err != nil:
		logger.Warn("Watch: %s: %v", path, err)
		return nil
	}
	if p.Outcome == domain.OutcomeFailed {
		logger.Warn("Watch: OCR failed for %s: %v", path, p.Err)
	}
	if progress != nil {
		progress(p)
	}
	return nil
}
