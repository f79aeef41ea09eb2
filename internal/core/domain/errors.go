package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown engine type or image format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidQuery indicates a search query that cannot be parsed.
	// It never affects stored data.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSearchUnavailable indicates the store cannot serve the requested search mode.
	ErrSearchUnavailable = errors.New("search mode unavailable")

	// Ingest Errors.

	// ErrOCRFailure indicates the engine could not process an image.
	// It is recorded against the image and does not stop an ingest run.
	ErrOCRFailure = errors.New("ocr failed")

	// ErrStoreWrite indicates a persistence failure.
	// It aborts the current image and the ingest run.
	ErrStoreWrite = errors.New("store write failed")

	// ErrEngineUnavailable indicates the configured OCR engine cannot run
	// in this build or environment.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrIngestInProgress indicates an ingest is already running for the directory.
	ErrIngestInProgress = errors.New("ingest in progress")
)
