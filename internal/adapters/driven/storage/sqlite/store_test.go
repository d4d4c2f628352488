package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fedledger-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}
	return store, cleanup
}

func testRun(id string, started time.Time, failures ...domain.Failure) domain.RunRecord {
	return domain.RunRecord{
		ID:         id,
		DocType:    domain.DocTypeStatement,
		SourceDir:  "/data/statements",
		Processed:  3,
		Failed:     len(failures),
		Skipped:    1,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Failures:   failures,
	}
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")

	_, err = NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	for _, table := range []string{"sync_runs", "run_failures"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), testRun("run-1", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(tempDir)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestRunStore_SaveAndRecent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testRun("run-old", base)))
	require.NoError(t, store.Save(ctx, testRun("run-new", base.Add(time.Hour),
		domain.Failure{Key: "abcdef0123456789", Location: "file:///x.html", Stage: domain.StageExtracted, Reason: "no policy decision"},
		domain.Failure{Key: "0123456789abcdef", Location: "file:///y.html", Stage: domain.StageValidated, Reason: "meeting_date missing"},
	)))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)

	got := runs[0]
	assert.Equal(t, domain.DocTypeStatement, got.DocType)
	assert.Equal(t, "/data/statements", got.SourceDir)
	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, 2, got.Failed)
	assert.Equal(t, 1, got.Skipped)
	assert.True(t, base.Add(time.Hour).Equal(got.StartedAt))
	require.Len(t, got.Failures, 2)
	assert.Equal(t, "0123456789abcdef", got.Failures[0].Key)
	assert.Equal(t, domain.StageValidated, got.Failures[0].Stage)

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunStore_SaveReplacesRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, testRun("run-1", now,
		domain.Failure{Key: "k1", Stage: domain.StageExtracted, Reason: "boom"})))
	require.NoError(t, store.Save(ctx, testRun("run-1", now)))

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Failures)
}

func TestRunStore_SaveRequiresID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.Save(context.Background(), domain.RunRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunStore_FailuresFor(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	failure := domain.Failure{Key: "abcdef0123456789", Stage: domain.StageExtracted, Reason: "empty page"}

	require.NoError(t, store.Save(ctx, testRun("run-a", base, failure)))
	require.NoError(t, store.Save(ctx, testRun("run-b", base.Add(time.Minute), failure)))
	require.NoError(t, store.Save(ctx, testRun("run-c", base.Add(2*time.Minute))))

	got, err := store.FailuresFor(ctx, "abcdef0123456789")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-b", got[0].RunID)
	assert.Equal(t, "run-a", got[1].RunID)
	assert.Equal(t, "empty page", got[0].Failure.Reason)
	assert.True(t, base.Add(time.Minute).Equal(got[0].StartedAt))

	none, err := store.FailuresFor(ctx, "ffffffffffffffff")
	require.NoError(t, err)
	assert.Empty(t, none)
}
