package driving

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// SyncOrchestrator runs ingestion batches.
type SyncOrchestrator interface {
	// Sync processes one batch. Per-document failures are reported in
	// the result; setup and write failures are returned as errors.
	Sync(ctx context.Context, req SyncRequest) (*domain.BatchResult, error)

	// Status returns progress of the batch running for a document type.
	// When none is running the status is idle (Running is false).
	Status(ctx context.Context, docType domain.DocumentType) (*SyncStatus, error)
}

// SyncRequest describes one batch.
type SyncRequest struct {
	SourceDir string
	Pattern   string
	DocType   domain.DocumentType

	// Limit bounds the number of discovered references. Zero means no limit.
	Limit int

	DryRun    bool
	SaveRaw   bool
	Overwrite bool

	// Workers is the pool size. One processes documents sequentially.
	Workers   int
	WriteMode domain.WriteMode
}

// SyncStatus represents the current state of a batch.
type SyncStatus struct {
	DocType domain.DocumentType

	// Running indicates if the batch is in progress.
	Running bool

	// Total is the number of identified documents in the batch.
	Total int

	// DocumentsProcessed counts documents that reached validation.
	DocumentsProcessed int

	// ErrorCount is the number of documents that failed.
	ErrorCount int
}
