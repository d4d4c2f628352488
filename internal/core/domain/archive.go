package domain

import "time"

// DocumentSummary is one metadata entry as shown by list.
type DocumentSummary struct {
	Identifier    Identifier
	DocType       DocumentType
	Title         string
	SourceURL     string
	PublishedDate time.Time
	FetchedAt     time.Time
}

// DocumentInfo is the full archive view of one identifier.
type DocumentInfo struct {
	Identifier Identifier
	DocType    DocumentType

	// Values holds the metadata entry as written, keyed by column name.
	Values map[string]any

	// Raw is nil when no raw artifact is stored.
	Raw *StoredArtifact

	// Failures lists past run failures for this identifier, newest first.
	Failures []RunFailure
}

// RunFailure is a failure recorded by a past run.
type RunFailure struct {
	RunID     string
	Failure   Failure
	StartedAt time.Time
}

// TypeStats counts the archive contents for one document type.
type TypeStats struct {
	DocType      DocumentType
	Records      int
	ColumnarRows int64
	MetadataPath string
	ColumnarPath string
}

// ArchiveStats summarises the whole archive.
type ArchiveStats struct {
	Types      []TypeStats
	RawCount   int
	RawBytes   int64
	RecentRuns []RunRecord
}

// TotalRecords returns the number of metadata entries across all types.
func (s *ArchiveStats) TotalRecords() int {
	total := 0
	for _, t := range s.Types {
		total += t.Records
	}
	return total
}
