// Package schema declares the column contract of every document type and
// validates structured records against it.
package schema

import (
	"sort"

	"github.com/policyledger/fedledger/internal/core/domain"
)

// Kind is the value type of a column.
type Kind string

// Column kinds.
const (
	KindString     Kind = "string"
	KindTimestamp  Kind = "timestamp"
	KindCategory   Kind = "category"
	KindStringList Kind = "string_list"
)

// FieldSpec describes one column.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool

	// Allowed lists the permitted values of a category column.
	Allowed []string
}

// Schema is the ordered column list of one document type.
type Schema struct {
	DocType domain.DocumentType
	Fields  []FieldSpec
}

// Columns returns the column names in order.
func (s Schema) Columns() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the spec for a column name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func docTypeNames() []string {
	types := domain.AllDocumentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

func baseFields() []FieldSpec {
	return []FieldSpec{
		{Name: domain.ColumnDocID, Kind: KindString, Required: true},
		{Name: domain.ColumnSourceURL, Kind: KindString, Required: true},
		{Name: domain.ColumnFetchTimestamp, Kind: KindTimestamp, Required: true},
		{Name: domain.ColumnRawPath, Kind: KindString, Required: true},
		{Name: domain.ColumnContentType, Kind: KindString, Required: true},
		{Name: domain.ColumnTitle, Kind: KindString},
		{Name: domain.ColumnPublishedDate, Kind: KindTimestamp},
		{Name: domain.ColumnDocType, Kind: KindCategory, Required: true, Allowed: docTypeNames()},
	}
}

// Type-specific column names.
const (
	ColumnMeetingDate         = "meeting_date"
	ColumnPolicyDecision      = "policy_decision"
	ColumnVoteSummary         = "vote_summary"
	ColumnParticipants        = "participants"
	ColumnEconomicProjections = "economic_projections"
	ColumnSpeaker             = "speaker"
	ColumnSpeakerTitle        = "speaker_title"
	ColumnEventName           = "event_name"
	ColumnLocation            = "location"
	ColumnSpeechDate          = "speech_date"
	ColumnChairName           = "chair_name"
)

func speechFields() []FieldSpec {
	return []FieldSpec{
		{Name: ColumnSpeaker, Kind: KindString, Required: true},
		{Name: ColumnSpeakerTitle, Kind: KindString},
		{Name: ColumnEventName, Kind: KindString},
		{Name: ColumnLocation, Kind: KindString},
		{Name: ColumnSpeechDate, Kind: KindTimestamp, Required: true},
	}
}

var typeFields = map[domain.DocumentType][]FieldSpec{
	domain.DocTypeStatement: {
		{Name: ColumnMeetingDate, Kind: KindTimestamp, Required: true},
		{Name: ColumnPolicyDecision, Kind: KindString, Required: true},
		{Name: ColumnVoteSummary, Kind: KindString},
		{Name: ColumnParticipants, Kind: KindStringList},
	},
	domain.DocTypeMinutes: {
		{Name: ColumnMeetingDate, Kind: KindTimestamp, Required: true},
		{Name: ColumnParticipants, Kind: KindStringList},
		{Name: ColumnEconomicProjections, Kind: KindString},
	},
	domain.DocTypeSpeech:    speechFields(),
	domain.DocTypeTestimony: speechFields(),
	domain.DocTypePressConference: {
		{Name: ColumnMeetingDate, Kind: KindTimestamp, Required: true},
		{Name: ColumnChairName, Kind: KindString},
		{Name: ColumnParticipants, Kind: KindStringList},
	},
	domain.DocTypeReport: {},
}

// For returns the schema of a document type.
func For(docType domain.DocumentType) (Schema, error) {
	extra, ok := typeFields[docType]
	if !ok {
		return Schema{}, &domain.UnregisteredTypeError{DocType: docType}
	}
	fields := append(baseFields(), extra...)
	if docType == domain.DocTypeReport {
		for i := range fields {
			if fields[i].Name == domain.ColumnTitle {
				fields[i].Required = true
			}
		}
	}
	return Schema{DocType: docType, Fields: fields}, nil
}
