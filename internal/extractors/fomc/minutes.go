package fomc

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/extractors/htmldoc"
	"github.com/policyledger/fedledger/internal/schema"
)

// Ensure Minutes implements the interface.
var _ driven.Extractor = (*Minutes)(nil)

// maxAttendeeLength bounds an attendance line; longer paragraphs end the list.
const maxAttendeeLength = 120

// Minutes extracts meeting date, attendance and projections from FOMC minutes.
type Minutes struct{}

// NewMinutes creates a minutes extractor.
func NewMinutes() *Minutes {
	return &Minutes{}
}

// Extract reads a minutes page.
func (m *Minutes) Extract(_ context.Context, input driven.ExtractInput) (*domain.StructuredRecord, error) {
	doc, err := htmldoc.Parse(input)
	if err != nil {
		return nil, err
	}
	paragraphs := htmldoc.Paragraphs(doc)
	if len(paragraphs) == 0 {
		return nil, htmldoc.Fail(input, "minutes have no text")
	}

	rec := htmldoc.NewRecord(input, domain.DocTypeMinutes)
	rec.Title = htmldoc.Title(doc)
	if published, ok := htmldoc.PublishedDate(doc); ok {
		rec.PublishedAt = published
	}

	// The meeting date is in the heading; the release date is weeks later.
	for _, candidate := range []string{rec.Title, htmldoc.Text(doc, "h4"), strings.Join(paragraphs, " ")} {
		if date, ok := htmldoc.FindDate(candidate); ok {
			rec.Fields[schema.ColumnMeetingDate] = date
			break
		}
	}

	if attendees := attendance(doc); len(attendees) > 0 {
		rec.Fields[schema.ColumnParticipants] = attendees
	}
	if sep, ok := htmldoc.First(paragraphs, "Summary of Economic Projections"); ok {
		rec.Fields[schema.ColumnEconomicProjections] = sep
	}

	return rec, nil
}

// attendance reads the names listed after a "PRESENT:" paragraph.
func attendance(doc *goquery.Document) []string {
	var names []string
	collecting := false
	htmldoc.Content(doc).Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := htmldoc.Clean(p.Text())
		upper := strings.ToUpper(text)
		if !collecting {
			if strings.HasPrefix(upper, "PRESENT") {
				collecting = true
				if rest := strings.TrimSpace(strings.TrimPrefix(text[len("PRESENT"):], ":")); rest != "" {
					names = append(names, htmldoc.Names(rest)...)
				}
			}
			return true
		}
		if text == "" || len(text) > maxAttendeeLength {
			return false
		}
		// "Jerome H. Powell, Chair"
		if comma := strings.Index(text, ","); comma >= 0 {
			text = text[:comma]
		}
		names = append(names, text)
		return true
	})
	return names
}
