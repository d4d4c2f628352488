package driven

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// RunStore keeps a history of completed batches.
type RunStore interface {
	// Save stores a run and its failures.
	Save(ctx context.Context, run domain.RunRecord) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// FailuresFor returns past failures recorded against a key, newest first.
	FailuresFor(ctx context.Context, key string) ([]domain.RunFailure, error)
}
