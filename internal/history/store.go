// Package history records sync runs in SQLite and answers "when did this publication last sync".
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Last-run errors.
var (
	ErrNoRuns        = errors.New("no successful run recorded")
	ErrIncompleteRun = errors.New("last successful run left parts unfetched")
)

const schema = `CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    index_url TEXT NOT NULL,
    title TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    planned INTEGER NOT NULL,
    downloaded INTEGER NOT NULL,
    existing INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    archive TEXT,
    status TEXT NOT NULL,
    reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_url ON sync_runs(index_url, finished_at);`

// Run is one recorded sync run.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	IndexURL   string
	Title      string
	Archive    string
	Status     string
	Reason     string
	Planned    int
	Downloaded int
	Existing   int
	Failed     int
}

// Store persists runs in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_runs (
            id, index_url, title, started_at, finished_at,
            planned, downloaded, existing, failed, archive, status, reason
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.IndexURL,
		run.Title,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Planned,
		run.Downloaded,
		run.Existing,
		run.Failed,
		nullableString(run.Archive),
		run.Status,
		nullableString(run.Reason),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// LastSuccess returns the finish time of the latest successful run for indexURL.
// If that run had failed parts it returns ErrIncompleteRun: those parts were
// never fetched and must not be hidden behind its watermark.
func (s *Store) LastSuccess(ctx context.Context, indexURL string) (time.Time, error) {
	var (
		finished string
		failed   int
	)

	err := s.db.QueryRowContext(
		ctx,
		`SELECT finished_at, failed FROM sync_runs
         WHERE index_url = ? AND status = ?
         ORDER BY finished_at DESC LIMIT 1`,
		indexURL,
		StatusSuccess,
	).Scan(&finished, &failed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoRuns
	}

	if err != nil {
		return time.Time{}, fmt.Errorf("query last success: %w", err)
	}

	if failed > 0 {
		return time.Time{}, fmt.Errorf("%w: %d failed", ErrIncompleteRun, failed)
	}

	t, err := time.Parse(timeLayout, finished)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse finished_at: %w", err)
	}

	return t, nil
}

// List returns the most recent runs, newest first. An empty indexURL lists all publications.
func (s *Store) List(ctx context.Context, indexURL string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, index_url, title, started_at, finished_at, planned, downloaded,
        existing, failed, archive, status, reason FROM sync_runs`
	args := []any{}

	if indexURL != "" {
		query += ` WHERE index_url = ?`
		args = append(args, indexURL)
	}

	query += ` ORDER BY finished_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run               Run
		started, finished string
		archive, reason   sql.NullString
	)

	if err := rows.Scan(
		&run.ID, &run.IndexURL, &run.Title, &started, &finished,
		&run.Planned, &run.Downloaded, &run.Existing, &run.Failed,
		&archive, &run.Status, &reason,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error

	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}

	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}

	run.Archive = archive.String
	run.Reason = reason.String

	return run, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
