package driven

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// SourceDiscoverer lists the inputs of a batch.
type SourceDiscoverer interface {
	// Discover returns references in a stable order. A missing or
	// unreadable source is an error for the whole batch.
	Discover(ctx context.Context, opts DiscoverOptions) ([]domain.SourceRef, error)
}

// DiscoverOptions selects which references are returned.
type DiscoverOptions struct {
	Dir     string
	Pattern string
	DocType domain.DocumentType
}
