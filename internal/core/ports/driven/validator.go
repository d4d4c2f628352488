package driven

import "github.com/policyledger/fedledger/internal/core/domain"

// SchemaValidator checks a record against the schema of a document type.
// Validation is side-effect free and reports every violation at once.
type SchemaValidator interface {
	Validate(record *domain.StructuredRecord, docType domain.DocumentType) (*domain.ValidatedRecord, error)
}
