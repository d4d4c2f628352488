package driven

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// OutputWriter persists validated records to the columnar and metadata sinks.
type OutputWriter interface {
	// Write flushes records of one document type and returns the sink paths.
	// Errors are *domain.SchemaMismatchError or *domain.WriteError.
	Write(ctx context.Context, records []*domain.ValidatedRecord,
		docType domain.DocumentType, mode domain.WriteMode) ([]string, error)
}

// RecordReader reads back what OutputWriter persisted.
type RecordReader interface {
	// Entries returns the metadata entries of one document type.
	// A type with no sink yields an empty slice.
	Entries(ctx context.Context, docType domain.DocumentType) ([]map[string]any, error)

	// RowCount returns the number of rows in the columnar sink.
	RowCount(ctx context.Context, docType domain.DocumentType) (int64, error)

	// Paths returns the columnar and metadata sink paths for a type.
	Paths(docType domain.DocumentType) (columnar, metadata string)
}
