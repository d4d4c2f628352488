package driving

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// ArchiveService answers questions about what has been ingested.
type ArchiveService interface {
	// List returns metadata summaries for one type, or all types when docType is empty.
	List(ctx context.Context, docType domain.DocumentType) ([]domain.DocumentSummary, error)

	// Info returns everything known about an identifier.
	Info(ctx context.Context, id domain.Identifier) (*domain.DocumentInfo, error)

	// Stats summarises the archive.
	Stats(ctx context.Context) (*domain.ArchiveStats, error)
}
