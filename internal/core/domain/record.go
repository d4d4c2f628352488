package domain

import "time"

// Base column names shared by every document type.
const (
	ColumnDocID          = "doc_id"
	ColumnSourceURL      = "source_url"
	ColumnFetchTimestamp = "fetch_timestamp"
	ColumnRawPath        = "raw_path"
	ColumnContentType    = "content_type"
	ColumnTitle          = "title"
	ColumnPublishedDate  = "published_date"
	ColumnDocType        = "doc_type"
)

// StructuredRecord is the extractor's view of one document.
// Type-specific values live in Fields keyed by column name.
type StructuredRecord struct {
	Identifier     Identifier
	SourceLocation string
	DocType        DocumentType
	FetchedAt      time.Time
	RawPath        string
	ContentType    string
	Title          string
	PublishedAt    time.Time

	// Fields holds string, time.Time or []string values.
	// Dates may also be given as strings and are parsed by the validator.
	Fields map[string]any
}

// Columns flattens the record into column name -> value.
// Empty optional base values are reported as nil.
func (r *StructuredRecord) Columns() map[string]any {
	cols := make(map[string]any, len(r.Fields)+8)
	for k, v := range r.Fields {
		cols[k] = v
	}
	cols[ColumnDocID] = string(r.Identifier)
	cols[ColumnSourceURL] = r.SourceLocation
	cols[ColumnDocType] = string(r.DocType)
	cols[ColumnRawPath] = r.RawPath
	cols[ColumnContentType] = r.ContentType
	cols[ColumnFetchTimestamp] = nilIfZeroTime(r.FetchedAt)
	cols[ColumnPublishedDate] = nilIfZeroTime(r.PublishedAt)
	if r.Title == "" {
		cols[ColumnTitle] = nil
	} else {
		cols[ColumnTitle] = r.Title
	}
	return cols
}

func nilIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// ValidatedRecord is a record that satisfied its document schema.
// Values holds one entry per schema column: string, time.Time,
// []string or nil for absent optional columns.
type ValidatedRecord struct {
	Identifier     Identifier
	DocType        DocumentType
	SourceLocation string
	Values         map[string]any
}

// String returns a string column value, or "" when absent.
func (r *ValidatedRecord) String(column string) string {
	s, _ := r.Values[column].(string)
	return s
}

// Time returns a timestamp column value, or the zero time when absent.
func (r *ValidatedRecord) Time(column string) time.Time {
	t, _ := r.Values[column].(time.Time)
	return t
}

// TimePtr returns a timestamp column value, or nil when absent.
func (r *ValidatedRecord) TimePtr(column string) *time.Time {
	t, ok := r.Values[column].(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	return &t
}

// List returns a string list column value, or nil when absent.
func (r *ValidatedRecord) List(column string) []string {
	l, _ := r.Values[column].([]string)
	return l
}
