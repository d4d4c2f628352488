package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
)

func TestLazyStore_ReadsCreateNothing(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	lazy := NewLazyStore(dataDir)
	ctx := context.Background()

	runs, err := lazy.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	failures, err := lazy.FailuresFor(ctx, "dc11288aa80a47e9")
	require.NoError(t, err)
	assert.Empty(t, failures)

	assert.False(t, lazy.Opened())
	assert.NoDirExists(t, dataDir)
	assert.NoError(t, lazy.Close())
}

func TestLazyStore_SaveOpens(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	lazy := NewLazyStore(dataDir)
	ctx := context.Background()
	started := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, lazy.Save(ctx, testRun("run-1", started, domain.Failure{
		Key: "dc11288aa80a47e9", Stage: domain.StageExtracted, Reason: "no policy decision",
	})))
	assert.True(t, lazy.Opened())
	assert.FileExists(t, filepath.Join(dataDir, DatabaseFile))
	require.NoError(t, lazy.Close())

	// A fresh instance reads the existing database.
	reopened := NewLazyStore(dataDir)
	defer reopened.Close()
	runs, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)

	failures, err := reopened.FailuresFor(ctx, "dc11288aa80a47e9")
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}
