package driven

import (
	"context"
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// Extractor turns preserved raw bytes into a structured record for one
// document type. Implementations must not return a partial record
// alongside an error.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.StructuredRecord, error)
}

// ExtractInput carries everything an extractor may read.
type ExtractInput struct {
	Content     []byte
	ContentType string
	Identifier  domain.Identifier
	Location    string
	RawPath     string
	FetchedAt   time.Time
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, input ExtractInput) (*domain.StructuredRecord, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, input ExtractInput) (*domain.StructuredRecord, error) {
	return f(ctx, input)
}

// ExtractorRegistry maps document types to extractors.
type ExtractorRegistry interface {
	// Register adds or replaces the extractor for a document type.
	Register(docType domain.DocumentType, extractor Extractor)

	// Get returns the extractor for a document type or an
	// *domain.UnregisteredTypeError.
	Get(docType domain.DocumentType) (Extractor, error)

	// Types returns the registered document types, sorted.
	Types() []domain.DocumentType
}
