package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

const imageColumns = `i.id, i.path, i.dir, i.name, i.content_hash, i.size, i.mod_time,
	i.width, i.height, i.status, i.engine, i.error, i.processed_at, i.created_at, i.updated_at`

const spanColumns = `s.id, s.image_id, s.text, s.confidence, s.x, s.y, s.width, s.height, s.position`

// imageStore implements driven.ImageStore.
type imageStore struct {
	store *Store
}

var _ driven.ImageStore = (*imageStore)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetImage retrieves a record by absolute path.
func (s *imageStore) GetImage(ctx context.Context, path string) (*domain.ImageRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images i WHERE i.path = ?`, path)
	return scanImageRow(row)
}

// GetImageByID retrieves a record by ID.
func (s *imageStore) GetImageByID(ctx context.Context, id string) (*domain.ImageRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images i WHERE i.id = ?`, id)
	return scanImageRow(row)
}

// SaveImage creates or updates a record.
func (s *imageStore) SaveImage(ctx context.Context, rec *domain.ImageRecord) error {
	if err := upsertImage(ctx, s.store.db, rec); err != nil {
		return err
	}
	return nil
}

// CompleteImage replaces the record's spans and marks it done in one transaction.
func (s *imageStore) CompleteImage(ctx context.Context, rec *domain.ImageRecord, spans []domain.TextSpan) error {
	done := *rec
	done.Status = domain.StatusDone
	done.Error = ""

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertImage(ctx, tx, &done); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM text_spans WHERE image_id = ?`, done.ID); err != nil {
		return fmt.Errorf("deleting spans: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO text_spans (id, image_id, text, folded, confidence, x, y, width, height, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, span := range spans {
		id := span.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, done.ID, span.Text, strings.ToLower(span.Text),
			span.Confidence, span.Region.X, span.Region.Y, span.Region.Width, span.Region.Height,
			i); err != nil {
			return fmt.Errorf("saving span: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FailImage marks the record failed and removes any spans.
func (s *imageStore) FailImage(ctx context.Context, rec *domain.ImageRecord) error {
	failed := *rec
	failed.Status = domain.StatusFailed

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertImage(ctx, tx, &failed); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM text_spans WHERE image_id = ?`, failed.ID); err != nil {
		return fmt.Errorf("deleting spans: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSpans returns all spans for an image ordered by position.
func (s *imageStore) GetSpans(ctx context.Context, imageID string) ([]domain.TextSpan, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+spanColumns+` FROM text_spans s
		WHERE s.image_id = ?
		ORDER BY s.position
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()

	//nolint:prealloc // Size unknown from SQL query
	var spans []domain.TextSpan
	for rows.Next() {
		var span domain.TextSpan
		if err := rows.Scan(spanDest(&span)...); err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}

// ListImages returns records matching the filter ordered by path.
func (s *imageStore) ListImages(ctx context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM images i WHERE 1 = 1`
	var args []any

	if filter.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Directory != "" {
		clause, scopeArgs := scopeClause(filter.Directory)
		query += ` AND ` + clause
		args = append(args, scopeArgs...)
	}
	query += ` ORDER BY i.path`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()

	//nolint:prealloc // Size unknown from SQL query
	var images []domain.ImageRecord
	for rows.Next() {
		rec, err := scanImageRow(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *rec)
	}
	return images, rows.Err()
}

// ListSpans returns every span of done images within directory.
func (s *imageStore) ListSpans(ctx context.Context, directory string) ([]domain.SpanMatch, error) {
	query := `SELECT ` + imageColumns + `, ` + spanColumns + `, 0
		FROM text_spans s
		JOIN images i ON i.id = s.image_id
		WHERE i.status = 'done'`
	var args []any
	if directory != "" {
		clause, scopeArgs := scopeClause(directory)
		query += ` AND ` + clause
		args = append(args, scopeArgs...)
	}
	query += ` ORDER BY i.path, s.position`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// SearchSpans returns spans of done images matching the query.
func (s *imageStore) SearchSpans(ctx context.Context, q driven.SpanQuery) ([]domain.SpanMatch, error) {
	var query string
	var args []any

	switch q.Mode {
	case domain.MatchSubstring:
		query = `SELECT ` + imageColumns + `, ` + spanColumns + `, s.confidence AS score
			FROM text_spans s
			JOIN images i ON i.id = s.image_id
			WHERE i.status = 'done' AND instr(s.folded, ?) > 0`
		args = append(args, strings.ToLower(q.Text))
	case domain.MatchFullText:
		query = `SELECT ` + imageColumns + `, ` + spanColumns + `, -bm25(text_spans_fts) AS score
			FROM text_spans_fts
			JOIN text_spans s ON s.rowid = text_spans_fts.rowid
			JOIN images i ON i.id = s.image_id
			WHERE text_spans_fts MATCH ? AND i.status = 'done'`
		args = append(args, q.Text)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrSearchUnavailable, q.Mode)
	}

	if q.Directory != "" {
		clause, scopeArgs := scopeClause(q.Directory)
		query += ` AND ` + clause
		args = append(args, scopeArgs...)
	}
	query += ` ORDER BY score DESC, i.path, s.position`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	return matches, nil
}

// Stats summarises stored records and spans.
func (s *imageStore) Stats(ctx context.Context) (*domain.ImageStats, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM images GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting images: %w", err)
	}
	defer rows.Close()

	stats := &domain.ImageStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		switch domain.ImageStatus(status) {
		case domain.StatusPending:
			stats.Pending = count
		case domain.StatusDone:
			stats.Done = count
		case domain.StatusFailed:
			stats.Failed = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM text_spans`)
	if err := row.Scan(&stats.Spans); err != nil {
		return nil, fmt.Errorf("counting spans: %w", err)
	}
	return stats, nil
}

// ==================== Helpers ====================

func upsertImage(ctx context.Context, db execer, rec *domain.ImageRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Status == "" {
		rec.Status = domain.StatusPending
	}
	if rec.Dir == "" {
		rec.Dir = filepath.Dir(rec.Path)
	}
	if rec.Name == "" {
		rec.Name = filepath.Base(rec.Path)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO images (id, path, dir, name, content_hash, size, mod_time, width, height,
			status, engine, error, processed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			dir = excluded.dir,
			name = excluded.name,
			content_hash = excluded.content_hash,
			size = excluded.size,
			mod_time = excluded.mod_time,
			width = excluded.width,
			height = excluded.height,
			status = excluded.status,
			engine = excluded.engine,
			error = excluded.error,
			processed_at = excluded.processed_at,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Path, rec.Dir, rec.Name, rec.ContentHash, rec.Size, unixNano(rec.ModTime),
		rec.Width, rec.Height, string(rec.Status), rec.Engine, rec.Error,
		nullTime(rec.ProcessedAt), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	return nil
}

// scanImageRow scans imageColumns followed by any extra destinations.
func scanImageRow(row scanner, extra ...any) (*domain.ImageRecord, error) {
	var rec domain.ImageRecord
	var status string
	var modTime int64
	var processedAt, createdAt, updatedAt sql.NullTime

	dest := []any{&rec.ID, &rec.Path, &rec.Dir, &rec.Name, &rec.ContentHash, &rec.Size, &modTime,
		&rec.Width, &rec.Height, &status, &rec.Engine, &rec.Error, &processedAt, &createdAt, &updatedAt}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning image: %w", err)
	}

	rec.Status = domain.ImageStatus(status)
	if modTime != 0 {
		rec.ModTime = time.Unix(0, modTime).UTC()
	}
	if processedAt.Valid {
		rec.ProcessedAt = processedAt.Time
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return &rec, nil
}

func spanDest(span *domain.TextSpan) []any {
	return []any{&span.ID, &span.ImageID, &span.Text, &span.Confidence,
		&span.Region.X, &span.Region.Y, &span.Region.Width, &span.Region.Height, &span.Position}
}

// scanMatches reads rows of imageColumns, spanColumns and a score.
func scanMatches(rows *sql.Rows) ([]domain.SpanMatch, error) {
	//nolint:prealloc // Size unknown from SQL query
	var matches []domain.SpanMatch
	for rows.Next() {
		var m domain.SpanMatch
		extra := append(spanDest(&m.Span), &m.Score)
		rec, err := scanImageRow(rows, extra...)
		if err != nil {
			return nil, err
		}
		m.Image = *rec
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// scopeClause restricts i.dir to directory or anything beneath it.
func scopeClause(directory string) (string, []any) {
	dir := filepath.Clean(directory)
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	// substr counts characters, not bytes
	return `(i.dir = ? OR substr(i.dir, 1, ?) = ?)`,
		[]any{dir, utf8.RuneCountInString(prefix), prefix}
}

// classifyQueryError maps FTS5 syntax errors to domain.ErrInvalidQuery.
func classifyQueryError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"fts5", "syntax error", "unterminated string", "no such column", "unknown special query"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, err.Error())
		}
	}
	return fmt.Errorf("searching spans: %w", err)
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
