package sqlite

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure LazyStore implements the interface.
var _ driven.RunStore = (*LazyStore)(nil)

// LazyStore opens the run history on first use. Reads against a data
// directory without a database return nothing and create no files.
type LazyStore struct {
	dataDir string

	mu    sync.Mutex
	store *Store
}

// NewLazyStore returns a run history that opens dataDir on demand.
func NewLazyStore(dataDir string) *LazyStore {
	return &LazyStore{dataDir: dataDir}
}

// open returns the store, creating the database only when create is set.
func (l *LazyStore) open(create bool) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	if !create {
		_, err := os.Stat(filepath.Join(l.dataDir, DatabaseFile))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
	}
	s, err := NewStore(l.dataDir)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

// Opened reports whether the database has been opened.
func (l *LazyStore) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store != nil
}

// Save opens the database if needed and stores the run.
func (l *LazyStore) Save(ctx context.Context, run domain.RunRecord) error {
	s, err := l.open(true)
	if err != nil {
		return err
	}
	return s.Save(ctx, run)
}

// Recent returns nothing when no database exists yet.
func (l *LazyStore) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	s, err := l.open(false)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Recent(ctx, limit)
}

// FailuresFor returns nothing when no database exists yet.
func (l *LazyStore) FailuresFor(ctx context.Context, key string) ([]domain.RunFailure, error) {
	s, err := l.open(false)
	if err != nil || s == nil {
		return nil, err
	}
	return s.FailuresFor(ctx, key)
}

// Close closes the database if it was opened.
func (l *LazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
