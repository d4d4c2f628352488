package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
)

// RecentRunLimit is the number of runs reported by Stats.
const RecentRunLimit = 5

// Ensure ArchiveService implements the interface.
var _ driving.ArchiveService = (*ArchiveService)(nil)

// ArchiveService reads back the sinks, the raw store and the run history.
type ArchiveService struct {
	records driven.RecordReader
	raw     driven.RawStore
	runs    driven.RunStore
	types   []domain.DocumentType
}

// NewArchiveService creates an archive service over the given document
// types. runs may be nil.
func NewArchiveService(records driven.RecordReader, raw driven.RawStore, runs driven.RunStore,
	types []domain.DocumentType) *ArchiveService {
	return &ArchiveService{records: records, raw: raw, runs: runs, types: types}
}

// List returns summaries of one type, or of every type when docType is empty.
func (s *ArchiveService) List(ctx context.Context, docType domain.DocumentType) ([]domain.DocumentSummary, error) {
	types, err := s.selectTypes(docType)
	if err != nil {
		return nil, err
	}

	summaries := []domain.DocumentSummary{}
	for _, t := range types {
		entries, err := s.records.Entries(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t, err)
		}
		for _, e := range entries {
			summaries = append(summaries, summarise(t, e))
		}
	}
	return summaries, nil
}

// Info returns the metadata entry, raw artifact and past failures of an
// identifier. It returns domain.ErrNotFound when none of them exist.
func (s *ArchiveService) Info(ctx context.Context, id domain.Identifier) (*domain.DocumentInfo, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("%w: %q is not a 16-character hex identifier", domain.ErrInvalidInput, id)
	}

	info := &domain.DocumentInfo{Identifier: id}
	for _, t := range s.types {
		entries, err := s.records.Entries(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t, err)
		}
		for _, e := range entries {
			if entryString(e, domain.ColumnDocID) == id.String() {
				info.DocType = t
				info.Values = e
				break
			}
		}
		if info.Values != nil {
			break
		}
	}

	raw, err := s.raw.Find(ctx, id)
	switch {
	case err == nil:
		info.Raw = raw
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find raw artifact: %w", err)
	}

	if s.runs != nil {
		failures, err := s.runs.FailuresFor(ctx, id.String())
		if err != nil {
			return nil, fmt.Errorf("read run history: %w", err)
		}
		info.Failures = failures
	}

	if info.Values == nil && info.Raw == nil && len(info.Failures) == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return info, nil
}

// Stats summarises every document type, the raw store and recent runs.
func (s *ArchiveService) Stats(ctx context.Context) (*domain.ArchiveStats, error) {
	stats := &domain.ArchiveStats{}
	for _, t := range s.types {
		entries, err := s.records.Entries(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t, err)
		}
		rows, err := s.records.RowCount(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		columnar, metadata := s.records.Paths(t)
		stats.Types = append(stats.Types, domain.TypeStats{
			DocType:      t,
			Records:      len(entries),
			ColumnarRows: rows,
			MetadataPath: metadata,
			ColumnarPath: columnar,
		})
	}

	count, size, err := s.raw.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("raw stats: %w", err)
	}
	stats.RawCount = count
	stats.RawBytes = size

	if s.runs != nil {
		runs, err := s.runs.Recent(ctx, RecentRunLimit)
		if err != nil {
			return nil, fmt.Errorf("read run history: %w", err)
		}
		stats.RecentRuns = runs
	}
	return stats, nil
}

func (s *ArchiveService) selectTypes(docType domain.DocumentType) ([]domain.DocumentType, error) {
	if docType == "" {
		return s.types, nil
	}
	for _, t := range s.types {
		if t == docType {
			return []domain.DocumentType{t}, nil
		}
	}
	return nil, &domain.UnregisteredTypeError{DocType: docType}
}

func summarise(docType domain.DocumentType, e map[string]any) domain.DocumentSummary {
	return domain.DocumentSummary{
		Identifier:    domain.Identifier(entryString(e, domain.ColumnDocID)),
		DocType:       docType,
		Title:         entryString(e, domain.ColumnTitle),
		SourceURL:     entryString(e, domain.ColumnSourceURL),
		PublishedDate: entryTime(e, domain.ColumnPublishedDate),
		FetchedAt:     entryTime(e, domain.ColumnFetchTimestamp),
	}
}

func entryString(e map[string]any, key string) string {
	s, _ := e[key].(string)
	return s
}

// entryTime reads a timestamp as written by encoding/json.
func entryTime(e map[string]any, key string) time.Time {
	switch v := e[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
