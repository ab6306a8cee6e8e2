package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkscan/internal/model"
)

// storedTimeFormat is a fixed-width RFC3339 variant. RFC3339Nano trims
// trailing zeros, which would break the lexicographic ORDER BY on the
// timestamp columns.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CrawlDB persists crawl runs in a SQLite file. It is write-only
// during a crawl: the in-memory visited ledger is never seeded from
// it, so run semantics stay per-process. The tables exist for post-run
// querying and compare workflows.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the given file path. With
// CreateIfNotExists the parent directory and database file are created
// as needed; without it a missing file is an error.
func Open(dbPath string, opts Options) (*CrawlDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	// modernc.org/sqlite connection string: mode=rw refuses to create
	// a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single pooled connection avoids
	// SQLITE_BUSY churn during visit appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Best effort close on open failure
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort close on open failure
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per linkscan invocation
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seeds TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		skipped_robots INTEGER NOT NULL DEFAULT 0
	);

	-- One row per visited URL
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seed TEXT NOT NULL,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL,
		state TEXT NOT NULL,
		in_scope INTEGER NOT NULL,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_visits_run ON visits(run_id);
	CREATE INDEX IF NOT EXISTS idx_visits_url ON visits(url);
	CREATE INDEX IF NOT EXISTS idx_visits_state ON visits(state);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a finished crawl: the run row plus one visit row
// per record, in a single transaction.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) error {
	seedsJSON, err := json.Marshal(report.Seeds)
	if err != nil {
		return fmt.Errorf("failed to serialize seeds: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // No-op after commit
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, seeds, started_at, finished_at, skipped_robots)
	VALUES (?, ?, ?, ?, ?)
	`,
		report.RunID,
		string(seedsJSON),
		report.StartedAt.Format(storedTimeFormat),
		report.FinishedAt.Format(storedTimeFormat),
		report.SkippedRobots,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO visits (run_id, seed, url, depth, status, state, in_scope, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare visit insert: %w", err)
	}
	defer func() {
		_ = stmt.Close() //nolint:errcheck // Statement is transaction-scoped
	}()

	for _, v := range report.Visits {
		if _, err := stmt.ExecContext(ctx,
			report.RunID,
			v.Seed,
			v.URL,
			v.Depth,
			v.Status,
			v.State,
			boolToInt(v.InScope),
			v.FetchedAt.Format(storedTimeFormat),
		); err != nil {
			return fmt.Errorf("failed to insert visit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string

	// Seeds are the seed URLs the run was started with.
	Seeds []string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// SkippedRobots counts URLs dropped by the robots gate.
	SkippedRobots int
}

// ListRuns returns all stored runs, newest first.
func (cdb *CrawlDB) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT run_id, seeds, started_at, finished_at, skipped_robots
	FROM runs
	ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var seedsJSON, started, finished string
		if err := rows.Scan(&run.RunID, &seedsJSON, &started, &finished, &run.SkippedRobots); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// VisitsForRun returns the visit records of one run in insertion order.
func (cdb *CrawlDB) VisitsForRun(ctx context.Context, runID string) ([]model.VisitRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT seed, url, depth, status, state, in_scope, fetched_at
	FROM visits
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []model.VisitRecord
	for rows.Next() {
		var v model.VisitRecord
		var inScope int
		var fetched string
		if err := rows.Scan(&v.Seed, &v.URL, &v.Depth, &v.Status, &v.State, &inScope, &fetched); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.InScope = inScope != 0
		v.FetchedAt = parseTimestamp(fetched)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// BrokenVisitsForRun returns the visits of one run whose state is
// broken or unreachable.
func (cdb *CrawlDB) BrokenVisitsForRun(ctx context.Context, runID string) ([]model.VisitRecord, error) {
	visits, err := cdb.VisitsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	broken := make([]model.VisitRecord, 0)
	for _, v := range visits {
		switch v.State {
		case model.StateBrokenClient.String(), model.StateBrokenServer.String(), model.StateUnreachable.String():
			broken = append(broken, v)
		}
	}
	return broken, nil
}

// LatestRun returns the most recent run, or nil when the database is
// empty.
func (cdb *CrawlDB) LatestRun(ctx context.Context) (*RunSummary, error) {
	runs, err := cdb.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// StatusHistory returns the status strings recorded for one URL across
// all runs, newest first. Useful for spotting links that flap.
func (cdb *CrawlDB) StatusHistory(ctx context.Context, url string) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT v.status
	FROM visits v
	JOIN runs r ON r.run_id = v.run_id
	WHERE v.url = ?
	ORDER BY r.started_at DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// ReportForRun reconstructs a CrawlReport from stored rows, for
// compare workflows against a live run. Returns nil when the run id
// is unknown.
func (cdb *CrawlDB) ReportForRun(ctx context.Context, runID string) (*model.CrawlReport, error) {
	var seedsJSON, started, finished string
	var skipped int
	err := cdb.db.QueryRowContext(ctx, `
	SELECT seeds, started_at, finished_at, skipped_robots
	FROM runs
	WHERE run_id = ?
	`, runID).Scan(&seedsJSON, &started, &finished, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var seeds []string
	if err := json.Unmarshal([]byte(seedsJSON), &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seeds: %w", err)
	}
	visits, err := cdb.VisitsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &model.CrawlReport{
		RunID:         runID,
		Seeds:         seeds,
		StartedAt:     parseTimestamp(started),
		FinishedAt:    parseTimestamp(finished),
		Visits:        visits,
		SkippedRobots: skipped,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats, returning zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
