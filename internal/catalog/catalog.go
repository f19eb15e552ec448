// Package catalog keeps a SQLite index of saved experiment runs.
//
// The catalog is derived bookkeeping: every row can be rebuilt from the run
// directories themselves, and a missing or deleted catalog loses nothing.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one indexed run directory.
type Run struct {
	Dir       string     `json:"dir"`
	Kind      string     `json:"kind"`
	Codec     string     `json:"codec,omitempty"`
	Checksum  string     `json:"checksum,omitempty"`
	Pages     int        `json:"pages"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`
	PlottedAt *time.Time `json:"plotted_at,omitempty"`
}

// Store is a SQLite-backed run catalog.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the default catalog location (~/.labnote/runs.db).
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".labnote", "runs.db"), nil
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSave inserts or replaces the row for run.Dir.
func (s *Store) RecordSave(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (dir, kind, codec, checksum, pages, saved_at, plotted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dir) DO UPDATE SET
			kind = excluded.kind,
			codec = excluded.codec,
			checksum = excluded.checksum,
			pages = excluded.pages,
			saved_at = excluded.saved_at,
			plotted_at = excluded.plotted_at`,
		run.Dir, run.Kind, run.Codec, run.Checksum, run.Pages,
		formatTime(run.SavedAt), formatTime(run.PlottedAt))
	if err != nil {
		return fmt.Errorf("failed to record save of %s: %w", run.Dir, err)
	}
	return nil
}

// RecordPlot marks dir as plotted at the given time. Directories the catalog
// has not seen before get a row without a save time.
func (s *Store) RecordPlot(ctx context.Context, dir, kind string, pages int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (dir, kind, pages, plotted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dir) DO UPDATE SET
			pages = excluded.pages,
			plotted_at = excluded.plotted_at`,
		dir, kind, pages, formatTime(&at))
	if err != nil {
		return fmt.Errorf("failed to record plot of %s: %w", dir, err)
	}
	return nil
}

// Get returns the run for dir, or nil if it is not indexed.
func (s *Store) Get(ctx context.Context, dir string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT dir, kind, codec, checksum, pages, saved_at, plotted_at
		FROM runs WHERE dir = ?`, dir)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", dir, err)
	}
	return run, nil
}

// List returns indexed runs, newest save first. An empty kind lists all kinds.
func (s *Store) List(ctx context.Context, kind string) ([]Run, error) {
	query := `SELECT dir, kind, codec, checksum, pages, saved_at, plotted_at FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY saved_at DESC, dir ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Forget removes dir from the catalog. The run directory is not touched.
func (s *Store) Forget(ctx context.Context, dir string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE dir = ?`, dir)
	if err != nil {
		return false, fmt.Errorf("failed to forget run %s: %w", dir, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run                Run
		codec, checksum    sql.NullString
		savedAt, plottedAt sql.NullString
	)
	if err := sc.Scan(&run.Dir, &run.Kind, &codec, &checksum, &run.Pages, &savedAt, &plottedAt); err != nil {
		return nil, err
	}
	run.Codec = codec.String
	run.Checksum = checksum.String

	var err error
	if run.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, err
	}
	if run.PlottedAt, err = parseTime(plottedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", s.String, err)
	}
	return &t, nil
}
