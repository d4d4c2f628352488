package speech

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
		FetchedAt:   time.Now().UTC(),
	}
}

func TestExtract_Speech(t *testing.T) {
	in := fixture(t, "speech_20240308.html", "https://www.federalreserve.gov/newsevents/speech/cook20240308a.htm")

	rec, err := New(domain.DocTypeSpeech).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeSpeech, rec.DocType)
	assert.Equal(t, "Opening Remarks on the Economic Outlook", rec.Title)
	assert.Equal(t, "Lisa D. Cook", rec.Fields[schema.ColumnSpeaker])
	assert.Equal(t, "Governor", rec.Fields[schema.ColumnSpeakerTitle])
	assert.Equal(t, "Economic Club of New York", rec.Fields[schema.ColumnEventName])
	assert.Equal(t, "New York, New York", rec.Fields[schema.ColumnLocation])
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), rec.Fields[schema.ColumnSpeechDate])

	_, err = schema.NewValidator().Validate(rec, domain.DocTypeSpeech)
	assert.NoError(t, err)
}

func TestExtract_TestimonyFromMetaTags(t *testing.T) {
	in := fixture(t, "testimony_20240306.html", "https://www.federalreserve.gov/newsevents/testimony/powell20240306a.htm")

	rec, err := New(domain.DocTypeTestimony).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Jerome H. Powell", rec.Fields[schema.ColumnSpeaker])
	assert.Equal(t, "Chair", rec.Fields[schema.ColumnSpeakerTitle])
	assert.Equal(t, "Committee on Financial Services", rec.Fields[schema.ColumnEventName])
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), rec.Fields[schema.ColumnSpeechDate])

	_, err = schema.NewValidator().Validate(rec, domain.DocTypeTestimony)
	assert.NoError(t, err)
}

func TestExtract_MissingSpeakerFailsValidationNotExtraction(t *testing.T) {
	in := fixture(t, "speech_20240308.html", "https://www.federalreserve.gov/newsevents/speech/anon.htm")
	in.Content = []byte(`<html><body><div id="article"><h3 class="title">Untitled</h3><p>Text.</p></div></body></html>`)

	rec, err := New(domain.DocTypeSpeech).Extract(context.Background(), in)
	require.NoError(t, err)

	_, err = schema.NewValidator().Validate(rec, domain.DocTypeSpeech)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ElementsMatch(t, []string{schema.ColumnSpeaker, schema.ColumnSpeechDate}, vErr.Fields())
}

func TestExtract_EmptyPage(t *testing.T) {
	in := fixture(t, "speech_20240308.html", "https://www.federalreserve.gov/newsevents/speech/empty.htm")
	in.Content = []byte(`<html><body></body></html>`)

	_, err := New(domain.DocTypeSpeech).Extract(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestSplitSpeaker(t *testing.T) {
	name, role := splitSpeaker("Vice Chair for Supervision Michael S. Barr")
	assert.Equal(t, "Michael S. Barr", name)
	assert.Equal(t, "Vice Chair for Supervision", role)

	name, role = splitSpeaker("Ben S. Bernanke")
	assert.Equal(t, "Ben S. Bernanke", name)
	assert.Empty(t, role)
}
