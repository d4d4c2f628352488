package fomc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/schema"
)

func fixture(t *testing.T, name, location string) driven.ExtractInput {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	id, err := domain.GenerateIdentifier(location)
	require.NoError(t, err)
	return driven.ExtractInput{
		Content:     content,
		ContentType: "text/html",
		Identifier:  id,
		Location:    location,
		RawPath:     filepath.Join("raw", id.String()+".html"),
		FetchedAt:   time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStatement_Extract(t *testing.T) {
	in := fixture(t, "statement_20240131.html", "https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm")

	rec, err := NewStatement().Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.Identifier("d2bece16c41ba2e6"), rec.Identifier)
	assert.Equal(t, domain.DocTypeStatement, rec.DocType)
	assert.Equal(t, "Federal Reserve issues FOMC statement", rec.Title)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rec.Fields[schema.ColumnMeetingDate])
	assert.Equal(t,
		"In support of its goals, the Committee decided to maintain the target range for the federal funds rate at 5-1/4 to 5-1/2 percent.",
		rec.Fields[schema.ColumnPolicyDecision])
	assert.Contains(t, rec.Fields[schema.ColumnVoteSummary], "Voting for the monetary policy action were")

	participants, ok := rec.Fields[schema.ColumnParticipants].([]string)
	require.True(t, ok)
	assert.Len(t, participants, 12)
	assert.Equal(t, "Jerome H. Powell", participants[0])
	assert.Equal(t, "Christopher J. Waller", participants[11])

	_, err = schema.NewValidator().Validate(rec, domain.DocTypeStatement)
	assert.NoError(t, err)
}

func TestStatement_MalformedFails(t *testing.T) {
	in := fixture(t, "statement_malformed.html", "https://www.federalreserve.gov/calendar.htm")

	rec, err := NewStatement().Extract(context.Background(), in)

	assert.Nil(t, rec)
	var exErr *domain.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, in.Identifier, exErr.Identifier)
	assert.Contains(t, exErr.Reason, "policy decision")
}

func TestStatement_EmptyPage(t *testing.T) {
	in := fixture(t, "statement_malformed.html", "https://www.federalreserve.gov/empty.htm")
	in.Content = []byte("<html><body></body></html>")

	_, err := NewStatement().Extract(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestMinutes_Extract(t *testing.T) {
	in := fixture(t, "minutes_20240131.html", "https://www.federalreserve.gov/monetarypolicy/fomcminutes20240131.htm")

	rec, err := NewMinutes().Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rec.Fields[schema.ColumnMeetingDate])
	assert.Equal(t, time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC), rec.PublishedAt)
	assert.Equal(t,
		[]string{"Jerome H. Powell", "John C. Williams", "Michael S. Barr", "Michelle W. Bowman", "Lisa D. Cook"},
		rec.Fields[schema.ColumnParticipants])
	assert.Contains(t, rec.Fields[schema.ColumnEconomicProjections], "Summary of Economic Projections")

	_, err = schema.NewValidator().Validate(rec, domain.DocTypeMinutes)
	assert.NoError(t, err)
}

func TestPressConference_Extract(t *testing.T) {
	in := fixture(t, "press_conference_20240131.html", "https://www.federalreserve.gov/mediacenter/files/FOMCpresconf20240131.htm")

	rec, err := NewPressConference().Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Powell", rec.Fields[schema.ColumnChairName])
	assert.Equal(t, []string{"Chair Powell", "Michelle Smith", "Howard Schneider"}, rec.Fields[schema.ColumnParticipants])
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rec.Fields[schema.ColumnMeetingDate])

	_, err = schema.NewValidator().Validate(rec, domain.DocTypePressConference)
	assert.NoError(t, err)
}

func TestExtractors_RejectPDF(t *testing.T) {
	in := fixture(t, "statement_20240131.html", "https://www.federalreserve.gov/statement.pdf")
	in.ContentType = "application/pdf"

	for _, ex := range []driven.Extractor{NewStatement(), NewMinutes(), NewPressConference()} {
		_, err := ex.Extract(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrExtraction)
	}
}
