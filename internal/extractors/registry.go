package extractors

import (
	"sort"
	"sync"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry is a concurrency-safe map from document type to extractor.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.DocumentType]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[domain.DocumentType]driven.Extractor)}
}

// Register adds or replaces the extractor for a document type.
func (r *Registry) Register(docType domain.DocumentType, extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[docType] = extractor
}

// Get returns the extractor for docType.
func (r *Registry) Get(docType domain.DocumentType) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.extractors[docType]
	if !ok {
		return nil, &domain.UnregisteredTypeError{DocType: docType}
	}
	return ex, nil
}

// Types returns the registered document types, sorted.
func (r *Registry) Types() []domain.DocumentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.DocumentType, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
