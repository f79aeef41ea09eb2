// Package tesseract provides an in-process OCR engine backed by Tesseract.
// It implements the driven.OCREngine interface.
//
// Build requires:
//   - Tesseract and Leptonica development libraries
//   - Install via: brew install tesseract (macOS) or apt install libtesseract-dev (Linux)
//   - The `tesseract` build tag: go build -tags tesseract ./...
//
// Without the tag the stub engine returns domain.ErrEngineUnavailable.
package tesseract
