package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
)

var published = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func sampleDocs() []domain.DocumentSummary {
	return []domain.DocumentSummary{
		{
			Identifier:    "3f2a9c1b7e4d8a60",
			DocType:       domain.DocTypeStatement,
			Title:         "Federal Reserve issues FOMC statement",
			SourceURL:     "https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm",
			PublishedDate: published,
		},
		{
			Identifier: "9c1b7e4d8a603f2a",
			DocType:    domain.DocTypeSpeech,
			SourceURL:  "file:///src/speech.html",
		},
	}
}

func TestListCmd_Table(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{docs: sampleDocs()}

	out, err := execute("list")

	require.NoError(t, err)
	assert.Contains(t, out, "3f2a9c1b7e4d8a60")
	assert.Contains(t, out, "2024-01-31")
	assert.Contains(t, out, "Federal Reserve issues FOMC statement")
	assert.Contains(t, strings.ToLower(out), "2 documents")
}

func TestListCmd_Empty(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{}

	out, err := execute("list", "--type", "minutes")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestListCmd_JSON(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{docs: sampleDocs()}

	out, err := execute("list", "--format", "json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "statement", entries[0].DocType)
	require.NotNil(t, entries[0].PublishedDate)
	assert.True(t, published.Equal(*entries[0].PublishedDate))
	assert.Nil(t, entries[1].PublishedDate)
}

func TestListCmd_CSV(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{docs: sampleDocs()}

	out, err := execute("list", "--format", "csv")

	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "id,type,published,title,source")
	assert.Contains(t, out, "9c1b7e4d8a603f2a,speech,-,,file:///src/speech.html")
}

func TestListCmd_UnknownFormat(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{}

	_, err := execute("list", "--format", "xml")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInfoCmd(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{info: &domain.DocumentInfo{
		Identifier: "3f2a9c1b7e4d8a60",
		DocType:    domain.DocTypeStatement,
		Values: map[string]any{
			"doc_id":          "3f2a9c1b7e4d8a60",
			"policy_decision": "maintain the target range",
			"vote_summary":    nil,
		},
		Raw: &domain.StoredArtifact{Path: "data/raw/3f2a9c1b7e4d8a60.html", Size: 2048, ModTime: published},
		Failures: []domain.RunFailure{{
			RunID:     "run-1",
			Failure:   domain.Failure{Stage: domain.StageValidated, Reason: "meeting_date: required"},
			StartedAt: published,
		}},
	}}

	out, err := execute("info", "3F2A9C1B7E4D8A60")

	require.NoError(t, err)
	assert.Contains(t, out, "Document 3f2a9c1b7e4d8a60")
	assert.Contains(t, out, "maintain the target range")
	assert.NotContains(t, out, "vote_summary")
	assert.Contains(t, out, "data/raw/3f2a9c1b7e4d8a60.html (2048 bytes")
	assert.Contains(t, out, "[validated] meeting_date: required")
}

func TestInfoCmd_NotFound(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{err: domain.ErrNotFound}

	_, err := execute("info", "0000000000000000")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestStatsCmd(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{stats: &domain.ArchiveStats{
		Types: []domain.TypeStats{
			{DocType: domain.DocTypeStatement, Records: 3, ColumnarRows: 3, MetadataPath: "data/metadata/statement.json"},
			{DocType: domain.DocTypeMinutes},
		},
		RawCount: 4,
		RawBytes: 3 * 1024 * 1024,
		RecentRuns: []domain.RunRecord{{
			ID: "run-42", DocType: domain.DocTypeStatement, Processed: 3, Failed: 1, StartedAt: published,
		}},
	}}

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "data/metadata/statement.json")
	assert.Contains(t, out, "4 files, 3.0 MiB")
	assert.Contains(t, out, "Recent runs")
	assert.Contains(t, out, "run-42")
}

func TestStatsCmd_Error(t *testing.T) {
	defer setupWiring(Wiring{})()
	archiveService = &mockArchiveService{err: errors.New("database is locked")}

	_, err := execute("stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 GiB", formatBytes(2*1024*1024*1024))
}
