package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// IngestService runs photos through OCR and stores the results.
type IngestService interface {
	// Ingest discovers photos under opts.Directory and processes every one that
	// is new or changed. Per-image OCR failures are recorded and counted.
	// A store failure aborts the run and returns domain.ErrStoreWrite along with
	// the partial report.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)

	// IngestFile processes a single photo with the same skip and failure rules.
	IngestFile(ctx context.Context, path string, force bool) (domain.IngestProgress, error)
}

// WatchService keeps the store in step with a directory.
type WatchService interface {
	// Watch ingests the directory, then processes changes until ctx is cancelled.
	// Returns nil on cancellation.
	Watch(ctx context.Context, opts domain.WatchOptions) error
}
