package fomc

import (
	"context"
	"strings"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/extractors/htmldoc"
	"github.com/policyledger/fedledger/internal/schema"
)

// Ensure Statement implements the interface.
var _ driven.Extractor = (*Statement)(nil)

const votingForPrefix = "voting for the monetary policy action were"

// Statement extracts the policy decision and vote from an FOMC statement.
type Statement struct{}

// NewStatement creates a statement extractor.
func NewStatement() *Statement {
	return &Statement{}
}

// Extract reads a statement page. A page without a paragraph about the
// federal funds target range is not a statement and fails.
func (s *Statement) Extract(_ context.Context, input driven.ExtractInput) (*domain.StructuredRecord, error) {
	doc, err := htmldoc.Parse(input)
	if err != nil {
		return nil, err
	}
	paragraphs := htmldoc.Paragraphs(doc)
	if len(paragraphs) == 0 {
		return nil, htmldoc.Fail(input, "statement has no text")
	}

	decision, ok := htmldoc.First(paragraphs, "target range", "federal funds rate")
	if !ok {
		return nil, htmldoc.Fail(input, "no policy decision paragraph")
	}

	rec := htmldoc.NewRecord(input, domain.DocTypeStatement)
	rec.Title = htmldoc.Title(doc)
	if published, ok := htmldoc.PublishedDate(doc); ok {
		rec.PublishedAt = published
		rec.Fields[schema.ColumnMeetingDate] = published
	}

	if sentence := htmldoc.Sentence(decision, "target range"); sentence != "" {
		rec.Fields[schema.ColumnPolicyDecision] = sentence
	} else {
		rec.Fields[schema.ColumnPolicyDecision] = decision
	}

	var votes []string
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		if strings.HasPrefix(lower, "voting for") || strings.HasPrefix(lower, "voting against") {
			votes = append(votes, p)
		}
		if strings.HasPrefix(lower, votingForPrefix) {
			rec.Fields[schema.ColumnParticipants] = htmldoc.Names(p[len(votingForPrefix):])
		}
	}
	if len(votes) > 0 {
		rec.Fields[schema.ColumnVoteSummary] = strings.Join(votes, " ")
	}

	return rec, nil
}
