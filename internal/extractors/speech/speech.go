// Package speech extracts speeches and congressional testimony. Both share
// the speaker, venue and delivery date layout of Board publications.
package speech

import (
	"context"
	"strings"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/extractors/htmldoc"
	"github.com/policyledger/fedledger/internal/schema"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// speakerTitles are matched longest first against the speaker line.
var speakerTitles = []string{
	"Vice Chair for Supervision",
	"Vice Chairman",
	"Vice Chair",
	"Chairman",
	"Chair",
	"Governor",
	"President",
}

// venuePrefixes introduce the event on the location line.
var venuePrefixes = []string{"At the ", "At ", "Before the ", "Before "}

// Extractor reads speech-like pages for one document type.
type Extractor struct {
	docType domain.DocumentType
}

// New creates an extractor producing records of docType.
func New(docType domain.DocumentType) *Extractor {
	return &Extractor{docType: docType}
}

// Extract reads the speaker, venue and date of a speech or testimony.
func (e *Extractor) Extract(_ context.Context, input driven.ExtractInput) (*domain.StructuredRecord, error) {
	doc, err := htmldoc.Parse(input)
	if err != nil {
		return nil, err
	}
	title := htmldoc.Title(doc)
	if title == "" && len(htmldoc.Paragraphs(doc)) == 0 {
		return nil, htmldoc.Fail(input, "%s has no title or text", e.docType)
	}

	rec := htmldoc.NewRecord(input, e.docType)
	rec.Title = title
	if published, ok := htmldoc.PublishedDate(doc); ok {
		rec.PublishedAt = published
		rec.Fields[schema.ColumnSpeechDate] = published
	}

	speakerLine := htmldoc.Text(doc, "p.speaker")
	if speakerLine == "" {
		speakerLine = htmldoc.Meta(doc, "speaker")
	}
	if speakerLine != "" {
		name, role := splitSpeaker(speakerLine)
		rec.Fields[schema.ColumnSpeaker] = name
		if role != "" {
			rec.Fields[schema.ColumnSpeakerTitle] = role
		}
	}

	if venue := htmldoc.Text(doc, "p.location"); venue != "" {
		event, place := splitVenue(venue)
		if event != "" {
			rec.Fields[schema.ColumnEventName] = event
		}
		if place != "" {
			rec.Fields[schema.ColumnLocation] = place
		}
	}

	return rec, nil
}

// splitSpeaker separates a leading title: "Governor Lisa D. Cook" -> ("Lisa D. Cook", "Governor").
func splitSpeaker(line string) (name, role string) {
	for _, t := range speakerTitles {
		if strings.HasPrefix(line, t+" ") {
			return strings.TrimSpace(line[len(t):]), t
		}
	}
	return line, ""
}

// splitVenue separates the event from its place:
// "At the Economic Club of New York, New York, New York" -> ("Economic Club of New York", "New York, New York").
func splitVenue(line string) (event, place string) {
	for _, p := range venuePrefixes {
		if strings.HasPrefix(line, p) {
			line = line[len(p):]
			break
		}
	}
	event, place, found := strings.Cut(line, ", ")
	if !found {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(event), strings.TrimSpace(place)
}
