package driven

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// RawStore preserves fetched bytes exactly as received.
type RawStore interface {
	// Save writes an artifact keyed by its identifier. When an artifact
	// already exists and overwrite is false, Save returns the existing
	// path with Written=false and does not touch the file.
	Save(ctx context.Context, artifact *domain.RawArtifact, overwrite bool) (SaveResult, error)

	// Find returns the stored artifact for an identifier or domain.ErrNotFound.
	Find(ctx context.Context, id domain.Identifier) (*domain.StoredArtifact, error)

	// Stats returns the number of stored artifacts and their total size.
	Stats(ctx context.Context) (count int, bytes int64, err error)
}

// SaveResult reports where an artifact lives and whether this call wrote it.
type SaveResult struct {
	Path    string
	Written bool
}
