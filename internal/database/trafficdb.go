package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aoyama-dev/sitemirror/internal/model"
)

// TrafficDB is the SQLite-backed traffic archive: a replayable record of
// every request/response an archive run performed, kept alongside the
// file tree for audit and change detection across runs.
//
// Design decision: One database file for all runs rather than one per run.
// Cross-run queries ("when did this URL last change?") are the point of
// keeping the archive, and a single file simplifies backup.
type TrafficDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures TrafficDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: the batch
	// runner records from several runs at once.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the traffic database under dbDir.
func Open(dbDir string, opts Options) (*TrafficDB, error) {
	dbPath := filepath.Join(dbDir, "sitemirror.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("traffic database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw prevents creating new files, rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; extra connections only help readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	tdb := &TrafficDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := tdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return tdb, nil
}

// Close closes the database connection.
func (tdb *TrafficDB) Close() error {
	return tdb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (tdb *TrafficDB) createTables() error {
	schema := `
	-- One row per archive run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		output_dir TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		archived INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per fetched resource, replayable from the stored body
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		final_url TEXT,
		status_code INTEGER,
		content_type TEXT,
		headers TEXT,
		body BLOB,
		body_hash TEXT,
		body_size INTEGER,
		binary INTEGER DEFAULT 0,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_run ON exchanges(run_id);
	CREATE INDEX IF NOT EXISTS idx_exchanges_url ON exchanges(url);
	CREATE INDEX IF NOT EXISTS idx_exchanges_hash ON exchanges(body_hash);
	`

	_, err := tdb.db.ExecContext(context.Background(), schema)
	return err
}

// BeginRun registers a new run and returns its ID.
func (tdb *TrafficDB) BeginRun(ctx context.Context, seed, outputDir string) (int64, error) {
	result, err := tdb.db.ExecContext(ctx,
		`INSERT INTO runs (seed, output_dir) VALUES (?, ?)`,
		seed, outputDir,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun records the run's final counters.
func (tdb *TrafficDB) FinishRun(ctx context.Context, runID int64, report *model.ArchiveReport) error {
	_, err := tdb.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, archived = ?, skipped = ?, failures = ? WHERE id = ?`,
		report.FinishedAt, report.Archived, report.Skipped, len(report.Failures), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// RecordExchange stores one fetched resource under a run.
// Uses UPSERT: re-fetching a URL within the same run replaces the record.
func (tdb *TrafficDB) RecordExchange(ctx context.Context, runID int64, res *model.Resource) error {
	headersJSON, err := json.Marshal(res.Headers)
	if err != nil {
		return fmt.Errorf("failed to serialize headers: %w", err)
	}

	binary := 0
	if res.Binary {
		binary = 1
	}

	_, err = tdb.db.ExecContext(ctx, `
	INSERT INTO exchanges (run_id, url, final_url, status_code, content_type, headers, body, body_hash, body_size, binary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		headers = excluded.headers,
		body = excluded.body,
		body_hash = excluded.body_hash,
		body_size = excluded.body_size,
		binary = excluded.binary,
		fetched_at = CURRENT_TIMESTAMP`,
		runID, res.URL, res.FinalURL, res.StatusCode, res.ContentType,
		string(headersJSON), res.Body, res.Hash(), len(res.Body), binary,
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// Run is a stored run row.
type Run struct {
	ID         int64
	Seed       string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Archived   int
	Skipped    int
	Failures   int
}

// ListRuns returns the most recent runs, newest first.
func (tdb *TrafficDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := tdb.db.QueryContext(ctx, `
	SELECT id, seed, COALESCE(output_dir, ''), started_at, finished_at, archived, skipped, failures
	FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seed, &r.OutputDir, &r.StartedAt, &r.FinishedAt,
			&r.Archived, &r.Skipped, &r.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Exchange is a stored request/response row.
type Exchange struct {
	ID          int64
	RunID       int64
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Headers     map[string][]string
	Body        []byte
	BodyHash    string
	BodySize    int64
	Binary      bool
	FetchedAt   time.Time
}

// ListExchanges returns the exchanges of a run in fetch order, without
// bodies; use GetExchange to replay a specific resource.
func (tdb *TrafficDB) ListExchanges(ctx context.Context, runID int64) ([]Exchange, error) {
	rows, err := tdb.db.QueryContext(ctx, `
	SELECT id, run_id, url, COALESCE(final_url, ''), status_code, COALESCE(content_type, ''),
	       COALESCE(body_hash, ''), COALESCE(body_size, 0), binary, fetched_at
	FROM exchanges WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		var binary int
		if err := rows.Scan(&e.ID, &e.RunID, &e.URL, &e.FinalURL, &e.StatusCode,
			&e.ContentType, &e.BodyHash, &e.BodySize, &binary, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		e.Binary = binary != 0
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// GetExchange returns one exchange with its headers and body, suitable for
// replaying the response.
func (tdb *TrafficDB) GetExchange(ctx context.Context, runID int64, url string) (*Exchange, error) {
	row := tdb.db.QueryRowContext(ctx, `
	SELECT id, run_id, url, COALESCE(final_url, ''), status_code, COALESCE(content_type, ''),
	       COALESCE(headers, '{}'), body, COALESCE(body_hash, ''), COALESCE(body_size, 0), binary, fetched_at
	FROM exchanges WHERE run_id = ? AND url = ?`, runID, url)

	var e Exchange
	var binary int
	var headersJSON string
	if err := row.Scan(&e.ID, &e.RunID, &e.URL, &e.FinalURL, &e.StatusCode, &e.ContentType,
		&headersJSON, &e.Body, &e.BodyHash, &e.BodySize, &binary, &e.FetchedAt); err != nil {
		return nil, fmt.Errorf("failed to load exchange: %w", err)
	}
	e.Binary = binary != 0

	if err := json.Unmarshal([]byte(headersJSON), &e.Headers); err != nil {
		// A corrupt headers blob shouldn't hide the body.
		e.Headers = nil
	}
	return &e, nil
}

// RunRecorder binds a TrafficDB to one run so the crawl engine can record
// exchanges without knowing about run IDs. It satisfies crawler.Recorder.
type RunRecorder struct {
	db    *TrafficDB
	runID int64
}

// NewRunRecorder creates a recorder for the given run.
func NewRunRecorder(db *TrafficDB, runID int64) *RunRecorder {
	return &RunRecorder{db: db, runID: runID}
}

// Record stores one fetched resource.
func (r *RunRecorder) Record(ctx context.Context, res *model.Resource) error {
	return r.db.RecordExchange(ctx, r.runID, res)
}
