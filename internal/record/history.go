package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/fsutil"
)

// Entry is a record together with when it was stored
type Entry struct {
	ID         int64
	Record     Record
	RecordedAt time.Time
}

// HistoryStore appends submission records to a SQLite database
type HistoryStore struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database at path.
// ":memory:" gives a private in-memory store.
func OpenHistory(ctx context.Context, path string) (*HistoryStore, error) {
	dsn := path
	if path != ":memory:" {
		expanded, err := fsutil.ExpandTilde(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrRecordStoreUnavailable, err)
		}
		if err := fsutil.EnsureParentDir(expanded); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrRecordStoreUnavailable, err)
		}
		dsn = expanded + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRecordStoreUnavailable, err)
	}
	// One connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)

	s := &HistoryStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrRecordStoreUnavailable, err)
	}
	return s, nil
}

func (s *HistoryStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workflow_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_workflow ON submissions(workflow_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save implements Recorder
func (s *HistoryStore) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (workflow_id, title, description, created_at, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.WorkflowID, rec.Title, rec.Description, rec.CreatedAt, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT id, workflow_id, title, description, created_at, recorded_at
	FROM submissions
	ORDER BY id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			recordedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Record.WorkflowID, &e.Record.Title, &e.Record.Description, &e.Record.CreatedAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
