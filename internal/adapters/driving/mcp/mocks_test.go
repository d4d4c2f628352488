package mcp

import (
	"context"
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// mockArchiveService is a mock implementation of driving.ArchiveService.
type mockArchiveService struct {
	docs  []domain.DocumentSummary
	info  *domain.DocumentInfo
	stats *domain.ArchiveStats
	err   error

	listedType domain.DocumentType
}

func (m *mockArchiveService) List(_ context.Context, docType domain.DocumentType) ([]domain.DocumentSummary, error) {
	m.listedType = docType
	return m.docs, m.err
}

func (m *mockArchiveService) Info(_ context.Context, id domain.Identifier) (*domain.DocumentInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.info == nil || m.info.Identifier != id {
		return nil, domain.ErrNotFound
	}
	return m.info, nil
}

func (m *mockArchiveService) Stats(_ context.Context) (*domain.ArchiveStats, error) {
	return m.stats, m.err
}

var testTime = time.Date(2024, 1, 31, 19, 0, 0, 0, time.UTC)

func sampleSummaries(n int) []domain.DocumentSummary {
	docs := make([]domain.DocumentSummary, n)
	for i := range docs {
		docs[i] = domain.DocumentSummary{
			Identifier:    domain.Identifier("00000000000000" + string(rune('a'+i/10)) + string(rune('0'+i%10))),
			DocType:       domain.DocTypeStatement,
			Title:         "Federal Reserve issues FOMC statement",
			SourceURL:     "https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm",
			PublishedDate: testTime,
		}
	}
	return docs
}

func sampleInfo() *domain.DocumentInfo {
	return &domain.DocumentInfo{
		Identifier: "3f2a9c1b7e4d8a60",
		DocType:    domain.DocTypeStatement,
		Values: map[string]any{
			"doc_id":          "3f2a9c1b7e4d8a60",
			"policy_decision": "maintain the target range",
		},
		Raw: &domain.StoredArtifact{Identifier: "3f2a9c1b7e4d8a60", Path: "data/raw/3f2a9c1b7e4d8a60.html", Size: 2048},
		Failures: []domain.RunFailure{{
			RunID:     "run-1",
			Failure:   domain.Failure{Key: "3f2a9c1b7e4d8a60", Stage: domain.StageValidated, Reason: "meeting_date: required"},
			StartedAt: testTime,
		}},
	}
}

func sampleStats() *domain.ArchiveStats {
	return &domain.ArchiveStats{
		Types: []domain.TypeStats{
			{DocType: domain.DocTypeStatement, Records: 3, ColumnarRows: 3},
			{DocType: domain.DocTypeMinutes, Records: 1, ColumnarRows: 1},
		},
		RawCount: 5,
		RawBytes: 10240,
		RecentRuns: []domain.RunRecord{{
			ID: "run-1", DocType: domain.DocTypeStatement, Processed: 3, Failed: 1, StartedAt: testTime,
		}},
	}
}
