// Package report extracts titled Board publications that carry no
// type-specific fields, such as the Monetary Policy Report.
package report

import (
	"context"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/extractors/htmldoc"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads a report's title and release date.
type Extractor struct{}

// New creates a report extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads a report page.
func (e *Extractor) Extract(_ context.Context, input driven.ExtractInput) (*domain.StructuredRecord, error) {
	doc, err := htmldoc.Parse(input)
	if err != nil {
		return nil, err
	}
	if htmldoc.Clean(doc.Text()) == "" {
		return nil, htmldoc.Fail(input, "report has no text")
	}

	rec := htmldoc.NewRecord(input, domain.DocTypeReport)
	rec.Title = htmldoc.Title(doc)
	if published, ok := htmldoc.PublishedDate(doc); ok {
		rec.PublishedAt = published
	}
	return rec, nil
}
