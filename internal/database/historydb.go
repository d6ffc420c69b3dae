package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/lighthouse-monitor/internal/history"
	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// DefaultFileName is the SQLite database file name inside the data directory.
const DefaultFileName = "history.db"

// HistoryDB stores the run history in SQLite.
// It implements history.Backend; every Save rewrites the stored runs inside
// a single transaction.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// recoveredFrom is where a corrupt database file was moved to before
	// this one was created. Empty when no recovery happened.
	recoveredFrom string
}

var _ history.Backend = (*HistoryDB)(nil)

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
//
// An existing file that SQLite reports as corrupt or not a database is moved
// aside to "history.db.corrupt-<unix seconds>" and a fresh database is
// created in its place (see RecoveredFrom). Without CreateIfNotExists the
// file is left alone and the error wraps history.ErrCorrupt.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DefaultFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	hdb, err := openPath(dbPath, opts)
	if err == nil || !isCorrupt(err) {
		return hdb, err
	}
	if !opts.CreateIfNotExists {
		return nil, fmt.Errorf("%w: %s: %v", history.ErrCorrupt, dbPath, err)
	}

	aside, moveErr := moveAside(dbPath, time.Now())
	if moveErr != nil {
		return nil, fmt.Errorf("%w: %s: %v (could not move aside: %v)", history.ErrCorrupt, dbPath, err, moveErr)
	}

	hdb, err = openPath(dbPath, opts)
	if err != nil {
		return nil, err
	}
	hdb.recoveredFrom = aside
	return hdb, nil
}

// openPath opens the database file at dbPath and creates the schema.
func openPath(dbPath string, opts Options) (*HistoryDB, error) {
	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// isCorrupt reports whether err is SQLite refusing the file itself.
func isCorrupt(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// Extended result codes carry the primary code in the low byte.
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	default:
		return false
	}
}

// moveAside renames dbPath and its WAL companions with a ".corrupt-<unix>"
// suffix and returns the new database path.
func moveAside(dbPath string, now time.Time) (string, error) {
	suffix := ".corrupt-" + strconv.FormatInt(now.Unix(), 10)
	aside := dbPath + suffix
	if err := os.Rename(dbPath, aside); err != nil {
		return "", err
	}
	for _, companion := range []string{"-wal", "-shm"} {
		if err := os.Rename(dbPath+companion, aside+companion); err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}
	return aside, nil
}

// RecoveredFrom returns where a corrupt database was moved to when Open
// replaced it, or "" when the existing database was usable.
func (hdb *HistoryDB) RecoveredFrom() string {
	return hdb.recoveredFrom
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per run; position orders runs oldest first
	CREATE TABLE IF NOT EXISTS runs (
		position INTEGER PRIMARY KEY,
		date TEXT NOT NULL
	);

	-- Scores of each successfully audited URL in a run
	CREATE TABLE IF NOT EXISTS run_results (
		run_position INTEGER NOT NULL REFERENCES runs(position) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		url TEXT NOT NULL,
		scores_json TEXT NOT NULL,
		PRIMARY KEY (run_position, ordinal)
	);

	CREATE INDEX IF NOT EXISTS idx_run_results_url ON run_results(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Load returns all stored runs, oldest first.
// An empty database yields no runs. Rows that cannot be decoded, or pages
// SQLite reports as corrupt, make the whole history corrupt
// (history.ErrCorrupt).
func (hdb *HistoryDB) Load(ctx context.Context) ([]model.Run, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT position, date FROM runs ORDER BY position`)
	if err != nil {
		if isCorrupt(err) {
			return nil, fmt.Errorf("%w: %v", history.ErrCorrupt, err)
		}
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	index := make(map[int64]int)
	for rows.Next() {
		var (
			position int64
			date     string
		)
		if err := rows.Scan(&position, &date); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		parsed, err := model.ParseRunDate(date)
		if err != nil {
			return nil, fmt.Errorf("%w: run %d: %v", history.ErrCorrupt, position, err)
		}

		index[position] = len(runs)
		runs = append(runs, model.Run{Date: parsed, Results: []model.URLScores{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	if len(runs) == 0 {
		return nil, nil
	}

	if err := hdb.loadResults(ctx, runs, index); err != nil {
		return nil, err
	}
	return runs, nil
}

// loadResults fills the Results of runs from the run_results table.
func (hdb *HistoryDB) loadResults(ctx context.Context, runs []model.Run, index map[int64]int) error {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_position, url, scores_json
	FROM run_results
	ORDER BY run_position, ordinal
	`)
	if err != nil {
		return fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position   int64
			url        string
			scoresJSON string
		)
		if err := rows.Scan(&position, &url, &scoresJSON); err != nil {
			return fmt.Errorf("failed to scan run result: %w", err)
		}

		i, ok := index[position]
		if !ok {
			continue // Orphaned result
		}

		var scores model.ScoreRecord
		if err := json.Unmarshal([]byte(scoresJSON), &scores); err != nil {
			return fmt.Errorf("%w: scores of %s in run %d: %v", history.ErrCorrupt, url, position, err)
		}
		runs[i].Results = append(runs[i].Results, model.URLScores{URL: url, Scores: scores})
	}

	return rows.Err()
}

// Save replaces all stored runs with runs inside one transaction.
func (hdb *HistoryDB) Save(ctx context.Context, runs []model.Run) (err error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is more useful
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM run_results`); err != nil {
		return fmt.Errorf("failed to clear run results: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}

	for position, run := range runs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO runs (position, date) VALUES (?, ?)`,
			position, run.Date.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for ordinal, result := range run.Results {
			var scoresJSON []byte
			scoresJSON, err = json.Marshal(result.Scores)
			if err != nil {
				return fmt.Errorf("failed to serialize scores: %w", err)
			}

			if _, err = tx.ExecContext(ctx,
				`INSERT INTO run_results (run_position, ordinal, url, scores_json) VALUES (?, ?, ?, ?)`,
				position, ordinal, result.URL, string(scoresJSON),
			); err != nil {
				return fmt.Errorf("failed to insert run result: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}
