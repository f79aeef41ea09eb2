// Package sqlite stores image records and their text spans in SQLite using
// modernc.org/sqlite, so no cgo is needed.
//
// Tables:
//
//   - images: one row per photo, unique on the resolved path
//   - text_spans: recognised text, deleted with its image
//   - text_spans_fts: FTS5 index over span text, kept current by triggers
//
// The schema comes from numbered migrations/NNN_name.{up,down}.sql files
// embedded in the binary. NewStore applies whatever is pending; MigrateTo
// can also walk the schema back.
//
// The database lives at ~/.recall/data/recall.db unless a data directory is
// given. It runs in WAL mode so searches proceed while an ingest writes, and
// an image's spans are replaced in one transaction.
package sqlite
