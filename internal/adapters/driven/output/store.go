// Package output writes validated records to per-type sinks: a Parquet
// file under the processed directory and a JSON metadata file under the
// metadata directory. Both sinks are staged to temp files and renamed into
// place, so readers never observe a partially written sink.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/schema"
)

// Ensure Store implements the interfaces.
var (
	_ driven.OutputWriter = (*Store)(nil)
	_ driven.RecordReader = (*Store)(nil)
)

// Store owns the processed and metadata directories.
type Store struct {
	mu           sync.Mutex
	processedDir string
	metadataDir  string
}

// NewStore creates a sink store. Directories are created on first write.
func NewStore(processedDir, metadataDir string) *Store {
	return &Store{processedDir: processedDir, metadataDir: metadataDir}
}

// Paths returns the columnar and metadata sink paths for a type.
func (s *Store) Paths(docType domain.DocumentType) (columnar, metadata string) {
	return filepath.Join(s.processedDir, string(docType)+".parquet"),
		filepath.Join(s.metadataDir, string(docType)+".json")
}

// Write flushes one batch. An empty batch leaves the sinks untouched.
func (s *Store) Write(ctx context.Context, records []*domain.ValidatedRecord,
	docType domain.DocumentType, mode domain.WriteMode) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return nil, nil
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: write mode %q", domain.ErrInvalidInput, mode)
	}
	sch, err := schema.For(docType)
	if err != nil {
		return nil, err
	}
	columnarPath, metadataPath := s.Paths(docType)
	fail := func(path string, err error) error {
		var mismatch *domain.SchemaMismatchError
		if errors.As(err, &mismatch) {
			return err
		}
		return &domain.WriteError{Path: path, Validated: len(records), Err: err}
	}

	for _, r := range records {
		if r.DocType != docType {
			return nil, fail(columnarPath, fmt.Errorf("record %s is %s, batch is %s", r.Identifier, r.DocType, docType))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(columnarPath, err)
	}
	for _, dir := range []string{s.processedDir, s.metadataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fail(dir, err)
		}
	}

	tmpColumnar, err := stageColumnar(s.processedDir, columnarPath, docType, records, mode)
	if err != nil {
		return nil, fail(columnarPath, err)
	}
	defer os.Remove(tmpColumnar) //nolint:errcheck // gone after rename

	tmpMetadata, err := stageMetadata(s.metadataDir, metadataPath, docType, sch.Columns(), records, mode)
	if err != nil {
		return nil, fail(metadataPath, err)
	}
	defer os.Remove(tmpMetadata) //nolint:errcheck // gone after rename

	if path, err := commit(s.metadataDir, tmpColumnar, columnarPath, tmpMetadata, metadataPath); err != nil {
		return nil, fail(path, err)
	}
	return []string{columnarPath, metadataPath}, nil
}

// commit renames both staged sinks into place, metadata first. When the
// columnar rename fails the previous metadata sink is restored, so the two
// sinks always describe the same batch. It returns the path that failed.
func commit(metadataDir, tmpColumnar, columnarPath, tmpMetadata, metadataPath string) (string, error) {
	backup, err := backupFile(metadataDir, metadataPath)
	if err != nil {
		return metadataPath, err
	}
	if backup != "" {
		defer os.Remove(backup) //nolint:errcheck // gone after restore
	}

	if err := os.Rename(tmpMetadata, metadataPath); err != nil {
		return metadataPath, err
	}
	if err := os.Rename(tmpColumnar, columnarPath); err != nil {
		var restoreErr error
		if backup != "" {
			restoreErr = os.Rename(backup, metadataPath)
		} else {
			restoreErr = os.Remove(metadataPath)
		}
		if restoreErr != nil {
			return columnarPath, errors.Join(err, fmt.Errorf("restoring %s: %w", metadataPath, restoreErr))
		}
		return columnarPath, err
	}
	return "", nil
}

// backupFile hard-links path to a hidden name in dir. It returns "" when
// path does not exist.
func backupFile(dir, path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.bak")
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	if err := os.Link(path, name); err == nil {
		return name, nil
	}
	// Filesystems without hard links get a copy.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	return name, nil
}

func stageColumnar(dir, path string, docType domain.DocumentType,
	records []*domain.ValidatedRecord, mode domain.WriteMode) (string, error) {
	switch docType {
	case domain.DocTypeStatement:
		return stageParquet(dir, path, docType, convert(records, toStatementRow),
			func(r StatementRow) string { return r.DocID }, mode)
	case domain.DocTypeMinutes:
		return stageParquet(dir, path, docType, convert(records, toMinutesRow),
			func(r MinutesRow) string { return r.DocID }, mode)
	case domain.DocTypeSpeech, domain.DocTypeTestimony:
		return stageParquet(dir, path, docType, convert(records, toSpeechRow),
			func(r SpeechRow) string { return r.DocID }, mode)
	case domain.DocTypePressConference:
		return stageParquet(dir, path, docType, convert(records, toPressConferenceRow),
			func(r PressConferenceRow) string { return r.DocID }, mode)
	case domain.DocTypeReport:
		return stageParquet(dir, path, docType, convert(records, toReportRow),
			func(r ReportRow) string { return r.DocID }, mode)
	default:
		return "", &domain.UnregisteredTypeError{DocType: docType}
	}
}

func convert[T any](records []*domain.ValidatedRecord, fn func(*domain.ValidatedRecord) T) []T {
	rows := make([]T, len(records))
	for i, r := range records {
		rows[i] = fn(r)
	}
	return rows
}

// upsert keeps existing rows whose key is not in batch, then appends batch.
func upsert[T any](existing, batch []T, key func(T) string) []T {
	if len(existing) == 0 {
		return batch
	}
	replaced := make(map[string]bool, len(batch))
	for _, r := range batch {
		replaced[key(r)] = true
	}
	merged := make([]T, 0, len(existing)+len(batch))
	for _, r := range existing {
		if !replaced[key(r)] {
			merged = append(merged, r)
		}
	}
	return append(merged, batch...)
}

func stageParquet[T any](dir, path string, docType domain.DocumentType, batch []T,
	key func(T) string, mode domain.WriteMode) (string, error) {
	rows := batch
	if mode == domain.WriteModeAppend {
		existing, err := readParquet[T](path, docType)
		if err != nil {
			return "", err
		}
		rows = upsert(existing, batch, key)
	}

	f, err := os.CreateTemp(dir, "."+string(docType)+"-*.parquet.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp sink: %w", err)
	}
	cleanup := func(err error) (string, error) {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		return cleanup(fmt.Errorf("writing rows: %w", err))
	}
	if err := w.Close(); err != nil {
		return cleanup(fmt.Errorf("closing parquet writer: %w", err))
	}
	if err := f.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing temp sink: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing temp sink: %w", err)
	}
	return f.Name(), nil
}

// readParquet returns the rows of an existing sink after checking that its
// columns match T. A missing sink yields no rows.
func readParquet[T any](path string, docType domain.DocumentType) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening existing sink: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat existing sink: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("reading existing sink: %w", err)
	}
	if err := compareColumns(path, docType, fieldNames(pf.Schema().Fields()),
		fieldNames(parquet.SchemaOf(new(T)).Fields())); err != nil {
		return nil, err
	}
	rows, err := parquet.Read[T](f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("reading existing rows: %w", err)
	}
	return rows, nil
}

func fieldNames(fields []parquet.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return names
}

// compareColumns reports a SchemaMismatchError when the sets differ.
func compareColumns(path string, docType domain.DocumentType, have, want []string) error {
	haveSet := make(map[string]bool, len(have))
	for _, n := range have {
		haveSet[n] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, n := range want {
		wantSet[n] = true
	}
	var missing, unexpected []string
	for _, n := range want {
		if !haveSet[n] {
			missing = append(missing, n)
		}
	}
	for _, n := range have {
		if !wantSet[n] {
			unexpected = append(unexpected, n)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	return &domain.SchemaMismatchError{Path: path, DocType: docType, Missing: missing, Unexpected: unexpected}
}

func stageMetadata(dir, path string, docType domain.DocumentType, columns []string,
	records []*domain.ValidatedRecord, mode domain.WriteMode) (string, error) {
	batch := make([]map[string]any, len(records))
	for i, r := range records {
		entry := make(map[string]any, len(columns))
		for _, c := range columns {
			entry[c] = r.Values[c]
		}
		batch[i] = entry
	}

	entries := batch
	if mode == domain.WriteModeAppend {
		existing, err := readMetadata(path)
		if err != nil {
			return "", err
		}
		for _, e := range existing {
			keys := make([]string, 0, len(e))
			for k := range e {
				keys = append(keys, k)
			}
			if err := compareColumns(path, docType, keys, columns); err != nil {
				return "", err
			}
		}
		entries = upsert(existing, batch, entryID)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+string(docType)+"-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp sink: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing metadata: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("syncing metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing metadata: %w", err)
	}
	return f.Name(), nil
}

func entryID(e map[string]any) string {
	id, _ := e[domain.ColumnDocID].(string)
	return id
}

func readMetadata(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding metadata %s: %w", path, err)
	}
	return entries, nil
}

// Entries returns the metadata entries of one document type.
func (s *Store) Entries(_ context.Context, docType domain.DocumentType) ([]map[string]any, error) {
	_, metadataPath := s.Paths(docType)
	entries, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []map[string]any{}
	}
	return entries, nil
}

// RowCount returns the number of rows in the columnar sink.
func (s *Store) RowCount(_ context.Context, docType domain.DocumentType) (int64, error) {
	columnarPath, _ := s.Paths(docType)
	f, err := os.Open(columnarPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening sink: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat sink: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("reading sink: %w", err)
	}
	return pf.NumRows(), nil
}
