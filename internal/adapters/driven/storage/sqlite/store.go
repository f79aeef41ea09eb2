package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// DatabaseFile is the database name inside the data directory.
const DatabaseFile = "recall.db"

// WAL lets searches read while an ingest writes.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store owns the database handle. The port implementations it hands out
// share that handle.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/recall.db and brings the schema up to date. An
// empty dataDir means ~/.recall/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.MigrateTo(context.Background(), latest); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// ImageStore returns the image and span store.
func (s *Store) ImageStore() driven.ImageStore {
	return &imageStore{store: s}
}

// migration is one numbered schema change, read from NNN_name.up.sql and
// NNN_name.down.sql.
type migration struct {
	version  int
	name     string
	up, down string
}

// latest asks MigrateTo for every known migration.
const latest = -1

// loadMigrations reads the embedded migration pairs in version order.
func loadMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	byVersion := map[int]*migration{}
	for _, e := range entries {
		base, direction, ok := splitMigrationName(e.Name())
		if !ok {
			continue
		}
		num, name, _ := strings.Cut(base, "_")
		version, err := strconv.Atoi(num)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", e.Name(), err)
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", e.Name(), err)
		}

		m := byVersion[version]
		if m == nil {
			m = &migration{version: version, name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.up = string(body)
		} else {
			m.down = string(body)
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.up == "" {
			return nil, fmt.Errorf("migration %d (%s) has no up script", m.version, m.name)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

func splitMigrationName(file string) (base, direction string, ok bool) {
	for _, d := range []string{"up", "down"} {
		if b, found := strings.CutSuffix(file, "."+d+".sql"); found {
			return b, d, true
		}
	}
	return "", "", false
}

// MigrateTo applies up scripts until the schema reaches target, or down
// scripts when the schema is ahead of it. A negative target means the newest
// migration. Each step commits on its own together with its version row.
func (s *Store) MigrateTo(ctx context.Context, target int) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	all, err := loadMigrations(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	if target < 0 && len(all) > 0 {
		target = all[len(all)-1].version
	}
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	if current <= target {
		for _, m := range all {
			if m.version > current && m.version <= target {
				if err := s.step(ctx, m, m.up, `INSERT INTO schema_migrations (version) VALUES (?)`); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, m := range slices.Backward(all) {
		if m.version <= current && m.version > target {
			if m.down == "" {
				return fmt.Errorf("migration %d (%s) cannot be reverted", m.version, m.name)
			}
			if err := s.step(ctx, m, m.down, `DELETE FROM schema_migrations WHERE version = ?`); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) step(ctx context.Context, m migration, script, record string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, record, m.version); err != nil {
		return fmt.Errorf("migration %d: recording version: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	logger.Debug("schema migration %d (%s) done", m.version, m.name)
	return nil
}

// SchemaVersion returns the newest applied migration, 0 for an empty database.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}
