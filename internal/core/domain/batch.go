package domain

import (
	"sort"
	"time"
)

// Stage is a step in a document's progress through a batch.
type Stage string

// Document stages in pipeline order. A failure records the stage that
// could not be reached.
const (
	StageDiscovered Stage = "discovered"
	StageIdentified Stage = "identified"
	StageRawSaved   Stage = "raw_saved"
	StageExtracted  Stage = "extracted"
	StageValidated  Stage = "validated"
	StageWritten    Stage = "written"
)

// Failure records why one document did not reach the output sinks.
type Failure struct {
	// Key is the identifier, or the source location when identity failed.
	Key      string
	Location string
	Stage    Stage
	Reason   string
}

// PreviewEntry is one document a dry run would process.
type PreviewEntry struct {
	Identifier Identifier
	Location   string
}

// BatchResult is the outcome of one ingestion run.
type BatchResult struct {
	RunID     string
	DocType   DocumentType
	DryRun    bool
	Processed int
	Failed    int
	Skipped   int

	// Validated counts records that passed validation, including any that
	// a fatal write error prevented from being persisted.
	Validated int

	OutputFiles []string
	Failures    map[string]Failure
	Preview     []PreviewEntry

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewBatchResult returns an empty result for a run.
func NewBatchResult(runID string, docType DocumentType, dryRun bool) *BatchResult {
	return &BatchResult{
		RunID:    runID,
		DocType:  docType,
		DryRun:   dryRun,
		Failures: make(map[string]Failure),
	}
}

// RecordFailure adds a failure and increments the failed count. A repeated
// key keeps the first failure and counts as skipped, so Failed always equals
// len(Failures).
func (r *BatchResult) RecordFailure(f Failure) {
	if _, ok := r.Failures[f.Key]; ok {
		r.Skipped++
		return
	}
	r.Failures[f.Key] = f
	r.Failed++
}

// SortedFailures returns failures ordered by key.
func (r *BatchResult) SortedFailures() []Failure {
	out := make([]Failure, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Duration returns the wall time of the run.
func (r *BatchResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRecord is a persisted summary of a past batch.
type RunRecord struct {
	ID         string
	DocType    DocumentType
	SourceDir  string
	Processed  int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Failures   []Failure
}

// RunRecordFromResult summarises a batch result for persistence.
func RunRecordFromResult(result *BatchResult, sourceDir string) RunRecord {
	return RunRecord{
		ID:         result.RunID,
		DocType:    result.DocType,
		SourceDir:  sourceDir,
		Processed:  result.Processed,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Failures:   result.SortedFailures(),
	}
}
