package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
	"github.com/policyledger/fedledger/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncDeps are the driven ports a SyncOrchestrator needs. Runs and Metrics
// are optional.
type SyncDeps struct {
	Discoverer driven.SourceDiscoverer
	Fetcher    driven.Fetcher
	RawStore   driven.RawStore
	Extractors driven.ExtractorRegistry
	Validator  driven.SchemaValidator
	Output     driven.OutputWriter
	Runs       driven.RunStore
	Metrics    driven.MetricsRecorder
}

// SyncOrchestrator coordinates ingestion batches.
type SyncOrchestrator struct {
	deps SyncDeps
	log  *logger.Logger

	now   func() time.Time
	runID func() string

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[domain.DocumentType]*driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator. A nil log discards output.
func NewSyncOrchestrator(deps SyncDeps, log *logger.Logger) *SyncOrchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &SyncOrchestrator{
		deps:        deps,
		log:         log,
		now:         time.Now,
		runID:       uuid.NewString,
		activeSyncs: make(map[domain.DocumentType]*driving.SyncStatus),
	}
}

// job is one identified reference, in discovery order.
type job struct {
	index int
	ref   domain.SourceRef
	id    domain.Identifier
}

// outcome is what a worker reports for one job. Exactly one of record and
// failure is set.
type outcome struct {
	index   int
	record  *domain.ValidatedRecord
	failure *domain.Failure
}

// Sync runs one batch.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, req driving.SyncRequest) (*domain.BatchResult, error) {
	// 1. Setup checks
	req, err := normaliseRequest(req)
	if err != nil {
		return nil, err
	}
	extractor, err := o.deps.Extractors.Get(req.DocType)
	if err != nil {
		return nil, err
	}

	// 2. Discover
	refs, err := o.deps.Discoverer.Discover(ctx, driven.DiscoverOptions{
		Dir:     req.SourceDir,
		Pattern: req.Pattern,
		DocType: req.DocType,
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if req.Limit > 0 && len(refs) > req.Limit {
		refs = refs[:req.Limit]
	}

	result := domain.NewBatchResult(o.runID(), req.DocType, req.DryRun)
	result.StartedAt = o.now().UTC()
	log := o.log.With(logger.String("run_id", result.RunID), logger.DocType(req.DocType))

	// 3. Identify
	jobs := o.identify(refs, result, log)

	status := &driving.SyncStatus{DocType: req.DocType, Running: true, Total: len(jobs)}
	o.setStatus(req.DocType, status)
	defer o.clearStatus(req.DocType)

	log.Info("starting batch",
		logger.String("source_dir", req.SourceDir),
		logger.Int("documents", len(jobs)),
		logger.Int("workers", req.Workers),
		logger.Bool("dry_run", req.DryRun))

	// 4. Dry run stops before any side effect.
	if req.DryRun {
		for _, j := range jobs {
			result.Preview = append(result.Preview, domain.PreviewEntry{Identifier: j.id, Location: j.ref.Location})
		}
		result.Skipped += len(jobs)
		result.FinishedAt = o.now().UTC()
		if o.deps.Metrics != nil {
			o.deps.Metrics.ObserveBatch(result)
		}
		log.Info("dry run complete", logger.Int("would_process", len(jobs)))
		return result, nil
	}

	// 5. Process
	records := make([]*domain.ValidatedRecord, len(jobs))
	collect := func(out outcome) {
		if out.failure != nil {
			result.RecordFailure(*out.failure)
		} else {
			records[out.index] = out.record
			result.Processed++
		}
		o.updateStatus(req.DocType, result.Processed, result.Failed)
	}

	if req.Workers == 1 {
		for _, j := range jobs {
			collect(o.process(ctx, req, extractor, j, log))
		}
	} else {
		outcomes := make(chan outcome)
		go func() {
			var g errgroup.Group
			g.SetLimit(req.Workers)
			for _, j := range jobs {
				g.Go(func() error {
					outcomes <- o.process(ctx, req, extractor, j, log)
					return nil
				})
			}
			_ = g.Wait()
			close(outcomes)
		}()
		for out := range outcomes {
			collect(out)
		}
	}

	if err := ctx.Err(); err != nil {
		result.FinishedAt = o.now().UTC()
		return result, err
	}

	// 6. Flush once, in discovery order.
	batch := make([]*domain.ValidatedRecord, 0, result.Processed)
	for _, r := range records {
		if r != nil {
			batch = append(batch, r)
		}
	}
	result.Validated = len(batch)

	var writeErr error
	if len(batch) > 0 {
		paths, err := o.deps.Output.Write(ctx, batch, req.DocType, req.WriteMode)
		if err != nil {
			writeErr = err
			log.Error("writing records failed", logger.Int("validated", len(batch)), logger.Err(err))
		} else {
			result.OutputFiles = paths
		}
	} else {
		log.Info("no documents to write")
	}
	result.FinishedAt = o.now().UTC()

	// 7. Run history and metrics, best effort.
	o.record(ctx, req, result, log)

	log.Info("batch complete",
		logger.Int("processed", result.Processed),
		logger.Int("failed", result.Failed),
		logger.Int("skipped", result.Skipped),
		logger.Duration("duration", result.Duration()))

	if writeErr != nil {
		return result, writeErr
	}
	return result, nil
}

func normaliseRequest(req driving.SyncRequest) (driving.SyncRequest, error) {
	if req.SourceDir == "" {
		return req, fmt.Errorf("%w: source directory is required", domain.ErrInvalidInput)
	}
	if req.DocType == "" {
		return req, fmt.Errorf("%w: document type is required", domain.ErrInvalidInput)
	}
	if req.Limit < 0 {
		return req, fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrInvalidInput, req.Limit)
	}
	if req.Workers < 0 {
		return req, fmt.Errorf("%w: workers must be at least 1, got %d", domain.ErrInvalidInput, req.Workers)
	}
	if req.Workers == 0 {
		req.Workers = 1
	}
	if req.WriteMode == "" {
		req.WriteMode = domain.WriteModeAppend
	}
	if !req.WriteMode.IsValid() {
		return req, fmt.Errorf("%w: write mode must be append or overwrite, got %q", domain.ErrInvalidInput, req.WriteMode)
	}
	return req, nil
}

// identify assigns identifiers in discovery order. Identity failures are
// keyed by location; repeats of a failed location or of an identifier are
// skipped.
func (o *SyncOrchestrator) identify(refs []domain.SourceRef, result *domain.BatchResult, log *logger.Logger) []job {
	jobs := make([]job, 0, len(refs))
	seen := make(map[domain.Identifier]bool, len(refs))
	for _, ref := range refs {
		id, err := domain.GenerateIdentifier(ref.Location)
		if err != nil {
			result.RecordFailure(domain.Failure{
				Key:      ref.Location,
				Location: ref.Location,
				Stage:    domain.StageIdentified,
				Reason:   err.Error(),
			})
			log.Warn("identity failed", logger.String("source_url", ref.Location), logger.Err(err))
			continue
		}
		if seen[id] {
			result.Skipped++
			log.Debug("duplicate identifier skipped", logger.DocID(id), logger.String("source_url", ref.Location))
			continue
		}
		seen[id] = true
		jobs = append(jobs, job{index: len(jobs), ref: ref, id: id})
	}
	return jobs
}

// process runs one document through fetch, raw save, extract and validate.
func (o *SyncOrchestrator) process(ctx context.Context, req driving.SyncRequest,
	extractor driven.Extractor, j job, log *logger.Logger) outcome {
	log = log.With(logger.DocID(j.id), logger.String("source_url", j.ref.Location))
	fail := func(stage domain.Stage, err error) outcome {
		log.Warn("document failed", logger.String("stage", string(stage)), logger.Err(err))
		return outcome{index: j.index, failure: &domain.Failure{
			Key:      j.id.String(),
			Location: j.ref.Location,
			Stage:    stage,
			Reason:   err.Error(),
		}}
	}

	// Fetch and preserve before any processing.
	fetched, err := o.deps.Fetcher.Fetch(ctx, j.ref.FetchLocation())
	if err != nil {
		return fail(domain.StageRawSaved, &domain.FetchError{Location: j.ref.FetchLocation(), Identifier: j.id, Err: err})
	}
	rawPath := j.ref.FetchLocation()
	if req.SaveRaw {
		saved, err := o.deps.RawStore.Save(ctx, &domain.RawArtifact{
			Identifier:     j.id,
			SourceLocation: j.ref.Location,
			ContentType:    fetched.ContentType,
			Content:        fetched.Content,
			FetchedAt:      fetched.FetchedAt,
		}, req.Overwrite)
		if err != nil {
			return fail(domain.StageRawSaved, &domain.FetchError{Location: j.ref.Location, Identifier: j.id, Err: err})
		}
		rawPath = saved.Path
		if !saved.Written {
			log.Debug("raw artifact already preserved", logger.String("raw_path", saved.Path))
		}
	}

	record, err := extract(ctx, extractor, driven.ExtractInput{
		Content:     fetched.Content,
		ContentType: fetched.ContentType,
		Identifier:  j.id,
		Location:    j.ref.Location,
		RawPath:     rawPath,
		FetchedAt:   fetched.FetchedAt,
	})
	if err != nil {
		return fail(domain.StageExtracted, err)
	}

	validated, err := o.deps.Validator.Validate(record, req.DocType)
	if err != nil {
		return fail(domain.StageValidated, err)
	}
	log.Debug("document validated")
	return outcome{index: j.index, record: validated}
}

// extract calls the extractor and normalises every failure, including a
// panic or a missing record, into an *ExtractionError.
func extract(ctx context.Context, extractor driven.Extractor, in driven.ExtractInput) (record *domain.StructuredRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = &domain.ExtractionError{
				Identifier: in.Identifier,
				Location:   in.Location,
				Reason:     fmt.Sprintf("extractor panicked: %v", r),
			}
		}
	}()

	record, err = extractor.Extract(ctx, in)
	if err != nil {
		var extractionErr *domain.ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, &domain.ExtractionError{
			Identifier: in.Identifier,
			Location:   in.Location,
			Reason:     "extractor failed",
			Err:        err,
		}
	}
	if record == nil {
		return nil, &domain.ExtractionError{
			Identifier: in.Identifier,
			Location:   in.Location,
			Reason:     "extractor returned no record",
		}
	}
	return record, nil
}

func (o *SyncOrchestrator) record(ctx context.Context, req driving.SyncRequest,
	result *domain.BatchResult, log *logger.Logger) {
	if o.deps.Runs != nil {
		if err := o.deps.Runs.Save(ctx, domain.RunRecordFromResult(result, req.SourceDir)); err != nil {
			log.Warn("saving run history failed", logger.Err(err))
		}
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.ObserveBatch(result)
		if err := o.deps.Metrics.Flush(); err != nil {
			log.Warn("writing metrics failed", logger.Err(err))
		}
	}
}

// Status returns progress of the batch running for a document type.
func (o *SyncOrchestrator) Status(_ context.Context, docType domain.DocumentType) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeSyncs[docType]; ok {
		// Return a copy to avoid race conditions
		copied := *status
		return &copied, nil
	}

	// Not running - return idle status
	return &driving.SyncStatus{DocType: docType}, nil
}

func (o *SyncOrchestrator) setStatus(docType domain.DocumentType, status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeSyncs[docType] = status
}

func (o *SyncOrchestrator) updateStatus(docType domain.DocumentType, processed, failed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[docType]; ok {
		status.DocumentsProcessed = processed
		status.ErrorCount = failed
	}
}

func (o *SyncOrchestrator) clearStatus(docType domain.DocumentType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, docType)
}
