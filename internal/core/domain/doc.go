// Package domain holds the types every other package agrees on.
//
// An ImageRecord is one photo on disk, keyed by its resolved absolute path
// and carrying an ingest Status and content hash. OCR turns a PreparedImage
// into TextSpans, each with a Region in the original image's pixels and a
// confidence. Searches take SearchOptions and return SearchResults grouped
// per photo. AppSettings is the decoded config file.
//
// Nothing here imports another package of this module or any third-party
// code; adapters and services import domain, not the reverse.
package domain
