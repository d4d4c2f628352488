package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunRecord),
	}
}

// Save stores or replaces a run.
func (s *RunStore) Save(_ context.Context, run domain.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run without id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	run.Failures = append([]domain.Failure(nil), run.Failures...)
	s.runs[run.ID] = run
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *RunStore) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	runs := s.sorted()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// FailuresFor returns the failures recorded against key, newest run first.
func (s *RunStore) FailuresFor(_ context.Context, key string) ([]domain.RunFailure, error) {
	var out []domain.RunFailure
	for _, run := range s.sorted() {
		for _, f := range run.Failures {
			if f.Key == key {
				out = append(out, domain.RunFailure{RunID: run.ID, Failure: f, StartedAt: run.StartedAt})
			}
		}
	}
	return out, nil
}

func (s *RunStore) sorted() []domain.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs
}
