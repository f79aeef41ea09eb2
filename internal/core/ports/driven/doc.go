// Package driven declares what the services need from the outside world.
// Adapters under internal/adapters/driven and internal/connectors implement
// these interfaces:
//
//   - ImageStore: records, spans and span queries (sqlite, memory)
//   - ImageSource: finding and watching photos (connectors/filesystem)
//   - OCREngine: turning pixels into spans (ocr/...)
//   - Preprocessor: decode and downscale before OCR (imaging)
//   - ConfigStore: persisted settings (config/file, memory)
//
// Only the domain package may be imported from here.
package driven
