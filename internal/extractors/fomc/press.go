package fomc

import (
	"context"
	"regexp"
	"strings"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/extractors/htmldoc"
	"github.com/policyledger/fedledger/internal/schema"
)

// Ensure PressConference implements the interface.
var _ driven.Extractor = (*PressConference)(nil)

// speakerLabelRe matches transcript turn labels such as "CHAIR POWELL." or "MICHELLE SMITH.".
var speakerLabelRe = regexp.MustCompile(`^((?:[A-Z][A-Z'\-]+\s){0,3}[A-Z][A-Z'\-]+)\.\s`)

// PressConference extracts the chair and speakers from a press conference transcript.
type PressConference struct{}

// NewPressConference creates a press conference extractor.
func NewPressConference() *PressConference {
	return &PressConference{}
}

// Extract reads a transcript page.
func (p *PressConference) Extract(_ context.Context, input driven.ExtractInput) (*domain.StructuredRecord, error) {
	doc, err := htmldoc.Parse(input)
	if err != nil {
		return nil, err
	}
	paragraphs := htmldoc.Paragraphs(doc)
	if len(paragraphs) == 0 {
		return nil, htmldoc.Fail(input, "transcript has no text")
	}

	rec := htmldoc.NewRecord(input, domain.DocTypePressConference)
	rec.Title = htmldoc.Title(doc)
	if published, ok := htmldoc.PublishedDate(doc); ok {
		rec.PublishedAt = published
		rec.Fields[schema.ColumnMeetingDate] = published
	} else if date, ok := htmldoc.FindDate(rec.Title); ok {
		rec.Fields[schema.ColumnMeetingDate] = date
	}

	seen := make(map[string]bool)
	var speakers []string
	for _, para := range paragraphs {
		m := speakerLabelRe.FindStringSubmatch(para)
		if m == nil {
			continue
		}
		label := titleCase(m[1])
		if strings.HasPrefix(label, "Chair ") {
			if _, ok := rec.Fields[schema.ColumnChairName]; !ok {
				rec.Fields[schema.ColumnChairName] = strings.TrimPrefix(label, "Chair ")
			}
		}
		if !seen[label] {
			seen[label] = true
			speakers = append(speakers, label)
		}
	}
	if len(speakers) > 0 {
		rec.Fields[schema.ColumnParticipants] = speakers
	}

	return rec, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
