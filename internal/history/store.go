// Package history persists scan runs and per-file outcomes in SQLite so past
// scans can be queried after the console output is gone.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run represents a single scan invocation
type Run struct {
	ID        string
	Root      string // raw target as given on the command line
	Mode      string // file, directory, or glob
	Extension string
	Started   time.Time
	Completed time.Time // zero while the run is in flight
	Processed int
	Failed    int
	Skipped   int
}

// Duration returns how long the run took, zero while incomplete.
func (r *Run) Duration() time.Duration {
	if r.Completed.IsZero() {
		return 0
	}
	return r.Completed.Sub(r.Started)
}

// Total returns the number of candidates the run considered.
func (r *Run) Total() int {
	return r.Processed + r.Failed + r.Skipped
}

// FileResult represents the outcome of one dispatched candidate
type FileResult struct {
	ID       int64
	RunID    string
	Path     string
	Outcome  string // processed, failed, or skipped
	Detail   string // error text for failed and skipped outcomes
	Recorded time.Time
}

// Store manages the SQLite database holding scan history
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access with retry logic.
	// Set busy_timeout FIRST so subsequent operations wait on locks.
	// Retry with backoff covers "database is locked" errors during
	// concurrent initialization of the same database file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sql string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sql)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema applies the embedded schema
func (s *Store) initSchema() error {
	if err := execWithRetry(s.db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the database
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	err := s.db.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// indexExists checks if an index exists in the database
func (s *Store) indexExists(indexName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`
	err := s.db.QueryRow(query, indexName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check index existence: %w", err)
	}
	return count > 0, nil
}

// BeginRun inserts a new run row and returns its generated ID
func (s *Store) BeginRun(ctx context.Context, root, mode, extension string) (string, error) {
	id := uuid.New().String()

	query := `INSERT INTO runs (id, root, mode, extension, started) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, root, mode, extension, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	return id, nil
}

// FinishRun stamps the completion time and final counters on a run
func (s *Store) FinishRun(ctx context.Context, id string, processed, failed, skipped int) error {
	query := `UPDATE runs SET completed = ?, processed = ?, failed = ?, skipped = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), processed, failed, skipped, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// RecordFile inserts one per-file outcome row
func (s *Store) RecordFile(ctx context.Context, runID, path, outcome, detail string) error {
	query := `INSERT INTO file_results (run_id, path, outcome, detail) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, runID, path, outcome, detail); err != nil {
		return fmt.Errorf("insert file result: %w", err)
	}
	return nil
}

// Runs retrieves the most recent runs, newest first. A limit of 0 or less
// returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, root, mode, extension, started, completed, processed, failed, skipped
		FROM runs
		ORDER BY started DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// LatestRun returns the most recent run, or nil when the store is empty
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// GetRun retrieves a single run by ID, or nil when no such run exists
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT id, root, mode, extension, started, completed, processed, failed, skipped
		FROM runs
		WHERE id = ?`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate run rows: %w", err)
		}
		return nil, nil
	}

	return scanRun(rows)
}

// scanRun reads one runs row, normalizing nullable columns
func scanRun(rows *sql.Rows) (*Run, error) {
	run := &Run{}
	var extension sql.NullString
	var completed sql.NullTime
	err := rows.Scan(
		&run.ID,
		&run.Root,
		&run.Mode,
		&extension,
		&run.Started,
		&completed,
		&run.Processed,
		&run.Failed,
		&run.Skipped,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}

	if extension.Valid {
		run.Extension = extension.String
	}
	if completed.Valid {
		run.Completed = completed.Time
	}

	return run, nil
}

// FilesForRun retrieves every per-file outcome of a run, in dispatch order
func (s *Store) FilesForRun(ctx context.Context, runID string) ([]*FileResult, error) {
	return s.queryFiles(ctx, `SELECT id, run_id, path, outcome, detail, recorded
		FROM file_results
		WHERE run_id = ?
		ORDER BY id`, runID)
}

// FailuresForRun retrieves only the failed outcomes of a run, in dispatch order
func (s *Store) FailuresForRun(ctx context.Context, runID string) ([]*FileResult, error) {
	return s.queryFiles(ctx, `SELECT id, run_id, path, outcome, detail, recorded
		FROM file_results
		WHERE run_id = ? AND outcome = 'failed'
		ORDER BY id`, runID)
}

func (s *Store) queryFiles(ctx context.Context, query, runID string) ([]*FileResult, error) {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query file results: %w", err)
	}
	defer rows.Close()

	var results []*FileResult
	for rows.Next() {
		fr := &FileResult{}
		var detail sql.NullString
		err := rows.Scan(&fr.ID, &fr.RunID, &fr.Path, &fr.Outcome, &detail, &fr.Recorded)
		if err != nil {
			return nil, fmt.Errorf("scan file result row: %w", err)
		}
		if detail.Valid {
			fr.Detail = detail.String
		}
		results = append(results, fr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file result rows: %w", err)
	}

	return results, nil
}
