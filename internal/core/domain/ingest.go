package domain

import "time"

// DefaultExtensions are the file extensions treated as photos.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp"}

// IngestOptions configures an ingest run.
type IngestOptions struct {
	// Directory is the root to scan.
	Directory string

	// Recursive descends into subdirectories.
	Recursive bool

	// IncludeHidden processes dot-files and dot-directories.
	IncludeHidden bool

	// Force re-processes images already marked done.
	Force bool

	// Workers bounds concurrent OCR calls. Zero uses the configured default.
	Workers int

	// Progress is called after each image, if set.
	Progress func(IngestProgress)
}

// ImageOutcome is the result of handling one image during ingest.
type ImageOutcome string

// Image outcomes.
const (
	OutcomeProcessed ImageOutcome = "processed"
	OutcomeSkipped   ImageOutcome = "skipped"
	OutcomeFailed    ImageOutcome = "failed"
)

// IngestProgress reports a single handled image.
type IngestProgress struct {
	Path    string
	Outcome ImageOutcome
	Spans   int
	Err     error
	Done    int
}

// IngestReport summarises an ingest run.
type IngestReport struct {
	Directory  string
	Discovered int
	Processed  int
	Skipped    int
	Failed     int
	Spans      int
	Duration   time.Duration

	// Failures maps image path to the OCR failure message.
	Failures map[string]string
}

// NewIngestReport creates an empty report for a directory.
func NewIngestReport(dir string) *IngestReport {
	return &IngestReport{
		Directory: dir,
		Failures:  make(map[string]string),
	}
}

// Record adds one image outcome to the report.
func (r *IngestReport) Record(p IngestProgress) {
	switch p.Outcome {
	case OutcomeProcessed:
		r.Processed++
		r.Spans += p.Spans
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
		if p.Err != nil {
			r.Failures[p.Path] = p.Err.Error()
		}
	}
}

// Handled returns the number of images with an outcome.
func (r *IngestReport) Handled() int {
	return r.Processed + r.Skipped + r.Failed
}

// ChangeType identifies the kind of filesystem change.
type ChangeType int

// Change types.
const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ImageChange is a filesystem event for a photo.
type ImageChange struct {
	Type ChangeType
	Path string
}

// WatchOptions configures watch mode.
type WatchOptions struct {
	// Directory is the root to watch.
	Directory string

	// Recursive watches subdirectories.
	Recursive bool

	// IncludeHidden processes dot-files and dot-directories.
	IncludeHidden bool

	// Rescan is a cron spec for periodic full rescans. Empty disables.
	Rescan string

	// Progress is called after each image handled by the watcher, if set.
	Progress func(IngestProgress)
}
