package domain

import (
	"path/filepath"
	"time"
)

// ImageStatus is the OCR state of an image.
type ImageStatus string

// Image statuses.
const (
	// StatusPending marks an image discovered but not yet processed.
	StatusPending ImageStatus = "pending"

	// StatusDone marks an image whose spans are stored.
	StatusDone ImageStatus = "done"

	// StatusFailed marks an image the engine could not process.
	StatusFailed ImageStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ImageStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ImageStatus) String() string {
	return string(s)
}

// ImageRecord tracks a source photo and the outcome of its last OCR pass.
type ImageRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// Path is the absolute, symlink-resolved file path. It identifies the image.
	Path string

	// Dir is the parent directory of Path.
	Dir string

	// Name is the base name of Path.
	Name string

	// ContentHash fingerprints the bytes that were last processed.
	ContentHash string

	// Size is the file size in bytes at last processing.
	Size int64

	// ModTime is the file modification time at last processing.
	ModTime time.Time

	// Width and Height are the decoded pixel dimensions.
	Width  int
	Height int

	// Status is the OCR state.
	Status ImageStatus

	// Engine names the OCR engine that produced the spans.
	Engine string

	// Error holds the last failure message when Status is failed.
	Error string

	// ProcessedAt is when OCR last completed or failed.
	ProcessedAt time.Time

	// CreatedAt is when the image was first discovered.
	CreatedAt time.Time

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time
}

// NewImageRecord creates a pending record for a newly discovered path.
func NewImageRecord(id, path string, now time.Time) *ImageRecord {
	return &ImageRecord{
		ID:        id,
		Path:      path,
		Dir:       filepath.Dir(path),
		Name:      filepath.Base(path),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Unchanged reports whether the file metadata matches what was last processed.
func (r *ImageRecord) Unchanged(size int64, modTime time.Time) bool {
	return r.Size == size && r.ModTime.Equal(modTime)
}

// Region is an axis-aligned bounding box in source-image pixels.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsEmpty returns true if the region has no area.
func (r Region) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Scale multiplies every coordinate by factor, rounding to the nearest pixel.
func (r Region) Scale(factor float64) Region {
	if factor == 1 || factor <= 0 {
		return r
	}
	round := func(v int) int {
		return int(float64(v)*factor + 0.5)
	}
	return Region{
		X:      round(r.X),
		Y:      round(r.Y),
		Width:  round(r.Width),
		Height: round(r.Height),
	}
}

// TextSpan is one piece of recognised text owned by exactly one ImageRecord.
type TextSpan struct {
	// ID is the unique identifier for the span.
	ID string

	// ImageID links to the owning ImageRecord.
	ImageID string

	// Text is the recognised content.
	Text string

	// Confidence is the engine's confidence in the range 0..1.
	Confidence float64

	// Region locates the text within the image.
	Region Region

	// Position is the insertion ordinal. It carries no meaning beyond stable display.
	Position int
}

// PreparedImage is normalised image data handed to an OCR engine.
type PreparedImage struct {
	// Path is the source file, for engines and logs that need it.
	Path string

	// Data holds PNG-encoded pixels.
	Data []byte

	// Width and Height are the dimensions of Data.
	Width  int
	Height int

	// SourceWidth and SourceHeight are the original image dimensions.
	SourceWidth  int
	SourceHeight int

	// Format is the decoded source format (jpeg, png, webp...).
	Format string
}

// ScaleFactor returns the multiplier that maps Data coordinates back to the source image.
func (p PreparedImage) ScaleFactor() float64 {
	if p.Width == 0 || p.SourceWidth == 0 {
		return 1
	}
	return float64(p.SourceWidth) / float64(p.Width)
}

// ImageFilter narrows image listings.
type ImageFilter struct {
	// Status restricts to a single status when set.
	Status ImageStatus

	// Directory restricts to images at or below this directory when set.
	Directory string
}

// ImageStats summarises the store contents.
type ImageStats struct {
	Total   int
	Pending int
	Done    int
	Failed  int
	Spans   int
}
