// Package store persists bulletins, cards, and duplicate groups in SQLite.
//
// Every insert goes through insert-if-absent: the natural uniqueness of each
// record (card identity, raw update source keys) turns re-runs into benign
// skips instead of errors, which is what makes the pipeline stages safely
// re-runnable.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// InsertOutcome is the tri-state result of an insert-if-absent operation.
// Callers branch on the outcome instead of inspecting driver errors.
type InsertOutcome int

const (
	// Inserted means the record was written.
	Inserted InsertOutcome = iota
	// AlreadyExists means a record with the same natural key was present;
	// the expected, benign outcome of re-running a stage.
	AlreadyExists
	// Failed means the insert failed for another reason; the accompanying
	// error carries the cause.
	Failed
)

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path, enables WAL and foreign keys,
// and brings the schema up to date.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// insertIfAbsent executes an INSERT OR IGNORE statement and maps the result
// onto the tri-state outcome.
func (s *Store) insertIfAbsent(ctx context.Context, query string, args ...any) (InsertOutcome, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Failed, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Failed, err
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// Timestamps are stored as RFC 3339 UTC strings so lexicographic comparison
// in SQL matches chronological order.

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
