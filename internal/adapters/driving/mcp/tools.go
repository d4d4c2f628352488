package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// DefaultListLimit caps list_documents when no limit is given.
const DefaultListLimit = 50

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	DocType string `json:"doc_type,omitempty" jsonschema:"document type such as statements or speeches; empty lists every type"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default 50)"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentSummaryOutput `json:"documents"`
	Count     int                     `json:"count"`
	Total     int                     `json:"total"`
}

// DocumentSummaryOutput is one listed document.
type DocumentSummaryOutput struct {
	DocID         string `json:"doc_id"`
	DocType       string `json:"doc_type"`
	Title         string `json:"title,omitempty"`
	SourceURL     string `json:"source_url"`
	PublishedDate string `json:"published_date,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocID string `json:"doc_id" jsonschema:"the 16-character hex document identifier"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	DocID    string          `json:"doc_id"`
	DocType  string          `json:"doc_type,omitempty"`
	Values   map[string]any  `json:"values,omitempty"`
	RawPath  string          `json:"raw_path,omitempty"`
	RawBytes int64           `json:"raw_bytes,omitempty"`
	Failures []FailureOutput `json:"failures,omitempty"`
}

// FailureOutput is a past failure of a document.
type FailureOutput struct {
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
	StartedAt string `json:"started_at"`
}

// ArchiveStatsInput takes no arguments.
type ArchiveStatsInput struct{}

// ArchiveStatsOutput is the output schema for the archive_stats tool.
type ArchiveStatsOutput struct {
	Types        []TypeStatsOutput `json:"types"`
	TotalRecords int               `json:"total_records"`
	RawCount     int               `json:"raw_count"`
	RawBytes     int64             `json:"raw_bytes"`
	RecentRuns   []RunOutput       `json:"recent_runs,omitempty"`
}

// TypeStatsOutput counts one document type.
type TypeStatsOutput struct {
	DocType      string `json:"doc_type"`
	Records      int    `json:"records"`
	ColumnarRows int64  `json:"columnar_rows"`
}

// RunOutput summarises a past batch.
type RunOutput struct {
	RunID     string `json:"run_id"`
	DocType   string `json:"doc_type"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	StartedAt string `json:"started_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List archived Federal Reserve documents, optionally of one type",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get the structured record, raw artifact and past failures of one document",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "archive_stats",
		Description: "Summarise the archive: records per type, raw artifacts and recent runs",
	}, s.handleArchiveStats)
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var docType domain.DocumentType
	if input.DocType != "" {
		docType = domain.ParseDocumentType(input.DocType)
	}

	docs, err := s.ports.Archive.List(ctx, docType)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Total: len(docs)}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	output.Documents = make([]DocumentSummaryOutput, len(docs))
	output.Count = len(docs)
	for i, d := range docs {
		output.Documents[i] = DocumentSummaryOutput{
			DocID:         d.Identifier.String(),
			DocType:       d.DocType.String(),
			Title:         d.Title,
			SourceURL:     d.SourceURL,
			PublishedDate: formatTime(d.PublishedDate),
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	info, err := s.ports.Archive.Info(ctx, domain.Identifier(input.DocID))
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}
	return nil, documentOutput(info), nil
}

func (s *Server) handleArchiveStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ArchiveStatsInput,
) (*mcp.CallToolResult, ArchiveStatsOutput, error) {
	stats, err := s.ports.Archive.Stats(ctx)
	if err != nil {
		return nil, ArchiveStatsOutput{}, err
	}
	return nil, statsOutput(stats), nil
}

func documentOutput(info *domain.DocumentInfo) GetDocumentOutput {
	out := GetDocumentOutput{
		DocID:   info.Identifier.String(),
		DocType: info.DocType.String(),
		Values:  info.Values,
	}
	if info.Raw != nil {
		out.RawPath = info.Raw.Path
		out.RawBytes = info.Raw.Size
	}
	for _, f := range info.Failures {
		out.Failures = append(out.Failures, FailureOutput{
			RunID:     f.RunID,
			Stage:     string(f.Failure.Stage),
			Reason:    f.Failure.Reason,
			StartedAt: formatTime(f.StartedAt),
		})
	}
	return out
}

func statsOutput(stats *domain.ArchiveStats) ArchiveStatsOutput {
	out := ArchiveStatsOutput{
		Types:        make([]TypeStatsOutput, len(stats.Types)),
		TotalRecords: stats.TotalRecords(),
		RawCount:     stats.RawCount,
		RawBytes:     stats.RawBytes,
	}
	for i, t := range stats.Types {
		out.Types[i] = TypeStatsOutput{
			DocType:      t.DocType.String(),
			Records:      t.Records,
			ColumnarRows: t.ColumnarRows,
		}
	}
	for _, r := range stats.RecentRuns {
		out.RecentRuns = append(out.RecentRuns, RunOutput{
			RunID:     r.ID,
			DocType:   r.DocType.String(),
			Processed: r.Processed,
			Failed:    r.Failed,
			Skipped:   r.Skipped,
			StartedAt: formatTime(r.StartedAt),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
