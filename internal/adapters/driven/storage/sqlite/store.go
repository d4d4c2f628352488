package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/policyledger/fedledger/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "fedledger.db"

// timeLayout sorts lexically when every value is in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the run history under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: empty data directory", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets `stats` read while a sync is writing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_runs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck // already failing
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck // already failing
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Save stores a run and its failures in one transaction. Saving the same
// run ID again replaces it.
func (s *Store) Save(ctx context.Context, run domain.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run without id", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM sync_runs WHERE id = ?", run.ID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_runs (id, doc_type, source_dir, processed, failed, skipped, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.DocType), run.SourceDir, run.Processed, run.Failed, run.Skipped,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, f := range run.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO run_failures (run_id, key, location, stage, reason)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, f.Key, f.Location, string(f.Stage), f.Reason)
		if err != nil {
			return fmt.Errorf("inserting failure %s: %w", f.Key, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, doc_type, source_dir, processed, failed, skipped, started_at, finished_at
		FROM sync_runs ORDER BY started_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		failures, err := s.runFailures(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

// FailuresFor returns the failures recorded against a key, newest run first.
func (s *Store) FailuresFor(ctx context.Context, key string) ([]domain.RunFailure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.run_id, f.key, f.location, f.stage, f.reason, r.started_at
		FROM run_failures f JOIN sync_runs r ON r.id = f.run_id
		WHERE f.key = ?
		ORDER BY r.started_at DESC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var out []domain.RunFailure
	for rows.Next() {
		var (
			rf        domain.RunFailure
			stage     string
			startedAt string
		)
		if err := rows.Scan(&rf.RunID, &rf.Failure.Key, &rf.Failure.Location, &stage,
			&rf.Failure.Reason, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		rf.Failure.Stage = domain.Stage(stage)
		if rf.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		out = append(out, rf)
	}
	return out, rows.Err()
}

func (s *Store) runFailures(ctx context.Context, runID string) ([]domain.Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, location, stage, reason FROM run_failures WHERE run_id = ? ORDER BY key
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.Failure
	for rows.Next() {
		var (
			f     domain.Failure
			stage string
		)
		if err := rows.Scan(&f.Key, &f.Location, &stage, &f.Reason); err != nil {
			return nil, fmt.Errorf("scanning run failure: %w", err)
		}
		f.Stage = domain.Stage(stage)
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func scanRun(rows *sql.Rows) (domain.RunRecord, error) {
	var (
		run        domain.RunRecord
		docType    string
		startedAt  string
		finishedAt string
	)
	if err := rows.Scan(&run.ID, &docType, &run.SourceDir, &run.Processed, &run.Failed,
		&run.Skipped, &startedAt, &finishedAt); err != nil {
		return run, fmt.Errorf("scanning run: %w", err)
	}
	run.DocType = domain.DocumentType(docType)

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return run, err
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}
