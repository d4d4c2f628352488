package output

import (
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/schema"
)

// StatementRow is the columnar layout of statement records.
type StatementRow struct {
	DocID          string     `parquet:"doc_id"`
	SourceURL      string     `parquet:"source_url"`
	FetchTimestamp time.Time  `parquet:"fetch_timestamp"`
	RawPath        string     `parquet:"raw_path"`
	ContentType    string     `parquet:"content_type"`
	Title          string     `parquet:"title,optional"`
	PublishedDate  *time.Time `parquet:"published_date,optional"`
	DocType        string     `parquet:"doc_type"`
	MeetingDate    time.Time  `parquet:"meeting_date"`
	PolicyDecision string     `parquet:"policy_decision"`
	VoteSummary    string     `parquet:"vote_summary,optional"`
	Participants   []string   `parquet:"participants,list"`
}

// MinutesRow is the columnar layout of minutes records.
type MinutesRow struct {
	DocID               string     `parquet:"doc_id"`
	SourceURL           string     `parquet:"source_url"`
	FetchTimestamp      time.Time  `parquet:"fetch_timestamp"`
	RawPath             string     `parquet:"raw_path"`
	ContentType         string     `parquet:"content_type"`
	Title               string     `parquet:"title,optional"`
	PublishedDate       *time.Time `parquet:"published_date,optional"`
	DocType             string     `parquet:"doc_type"`
	MeetingDate         time.Time  `parquet:"meeting_date"`
	Participants        []string   `parquet:"participants,list"`
	EconomicProjections string     `parquet:"economic_projections,optional"`
}

// SpeechRow is the columnar layout of speech and testimony records.
type SpeechRow struct {
	DocID          string     `parquet:"doc_id"`
	SourceURL      string     `parquet:"source_url"`
	FetchTimestamp time.Time  `parquet:"fetch_timestamp"`
	RawPath        string     `parquet:"raw_path"`
	ContentType    string     `parquet:"content_type"`
	Title          string     `parquet:"title,optional"`
	PublishedDate  *time.Time `parquet:"published_date,optional"`
	DocType        string     `parquet:"doc_type"`
	Speaker        string     `parquet:"speaker"`
	SpeakerTitle   string     `parquet:"speaker_title,optional"`
	EventName      string     `parquet:"event_name,optional"`
	Location       string     `parquet:"location,optional"`
	SpeechDate     time.Time  `parquet:"speech_date"`
}

// PressConferenceRow is the columnar layout of press conference records.
type PressConferenceRow struct {
	DocID          string     `parquet:"doc_id"`
	SourceURL      string     `parquet:"source_url"`
	FetchTimestamp time.Time  `parquet:"fetch_timestamp"`
	RawPath        string     `parquet:"raw_path"`
	ContentType    string     `parquet:"content_type"`
	Title          string     `parquet:"title,optional"`
	PublishedDate  *time.Time `parquet:"published_date,optional"`
	DocType        string     `parquet:"doc_type"`
	MeetingDate    time.Time  `parquet:"meeting_date"`
	ChairName      string     `parquet:"chair_name,optional"`
	Participants   []string   `parquet:"participants,list"`
}

// ReportRow is the columnar layout of report records.
type ReportRow struct {
	DocID          string     `parquet:"doc_id"`
	SourceURL      string     `parquet:"source_url"`
	FetchTimestamp time.Time  `parquet:"fetch_timestamp"`
	RawPath        string     `parquet:"raw_path"`
	ContentType    string     `parquet:"content_type"`
	Title          string     `parquet:"title,optional"`
	PublishedDate  *time.Time `parquet:"published_date,optional"`
	DocType        string     `parquet:"doc_type"`
}

func toStatementRow(r *domain.ValidatedRecord) StatementRow {
	return StatementRow{
		DocID:          r.String(domain.ColumnDocID),
		SourceURL:      r.String(domain.ColumnSourceURL),
		FetchTimestamp: r.Time(domain.ColumnFetchTimestamp),
		RawPath:        r.String(domain.ColumnRawPath),
		ContentType:    r.String(domain.ColumnContentType),
		Title:          r.String(domain.ColumnTitle),
		PublishedDate:  r.TimePtr(domain.ColumnPublishedDate),
		DocType:        r.String(domain.ColumnDocType),
		MeetingDate:    r.Time(schema.ColumnMeetingDate),
		PolicyDecision: r.String(schema.ColumnPolicyDecision),
		VoteSummary:    r.String(schema.ColumnVoteSummary),
		Participants:   r.List(schema.ColumnParticipants),
	}
}

func toMinutesRow(r *domain.ValidatedRecord) MinutesRow {
	return MinutesRow{
		DocID:               r.String(domain.ColumnDocID),
		SourceURL:           r.String(domain.ColumnSourceURL),
		FetchTimestamp:      r.Time(domain.ColumnFetchTimestamp),
		RawPath:             r.String(domain.ColumnRawPath),
		ContentType:         r.String(domain.ColumnContentType),
		Title:               r.String(domain.ColumnTitle),
		PublishedDate:       r.TimePtr(domain.ColumnPublishedDate),
		DocType:             r.String(domain.ColumnDocType),
		MeetingDate:         r.Time(schema.ColumnMeetingDate),
		Participants:        r.List(schema.ColumnParticipants),
		EconomicProjections: r.String(schema.ColumnEconomicProjections),
	}
}

func toSpeechRow(r *domain.ValidatedRecord) SpeechRow {
	return SpeechRow{
		DocID:          r.String(domain.ColumnDocID),
		SourceURL:      r.String(domain.ColumnSourceURL),
		FetchTimestamp: r.Time(domain.ColumnFetchTimestamp),
		RawPath:        r.String(domain.ColumnRawPath),
		ContentType:    r.String(domain.ColumnContentType),
		Title:          r.String(domain.ColumnTitle),
		PublishedDate:  r.TimePtr(domain.ColumnPublishedDate),
		DocType:        r.String(domain.ColumnDocType),
		Speaker:        r.String(schema.ColumnSpeaker),
		SpeakerTitle:   r.String(schema.ColumnSpeakerTitle),
		EventName:      r.String(schema.ColumnEventName),
		Location:       r.String(schema.ColumnLocation),
		SpeechDate:     r.Time(schema.ColumnSpeechDate),
	}
}

func toPressConferenceRow(r *domain.ValidatedRecord) PressConferenceRow {
	return PressConferenceRow{
		DocID:          r.String(domain.ColumnDocID),
		SourceURL:      r.String(domain.ColumnSourceURL),
		FetchTimestamp: r.Time(domain.ColumnFetchTimestamp),
		RawPath:        r.String(domain.ColumnRawPath),
		ContentType:    r.String(domain.ColumnContentType),
		Title:          r.String(domain.ColumnTitle),
		PublishedDate:  r.TimePtr(domain.ColumnPublishedDate),
		DocType:        r.String(domain.ColumnDocType),
		MeetingDate:    r.Time(schema.ColumnMeetingDate),
		ChairName:      r.String(schema.ColumnChairName),
		Participants:   r.List(schema.ColumnParticipants),
	}
}

func toReportRow(r *domain.ValidatedRecord) ReportRow {
	return ReportRow{
		DocID:          r.String(domain.ColumnDocID),
		SourceURL:      r.String(domain.ColumnSourceURL),
		FetchTimestamp: r.Time(domain.ColumnFetchTimestamp),
		RawPath:        r.String(domain.ColumnRawPath),
		ContentType:    r.String(domain.ColumnContentType),
		Title:          r.String(domain.ColumnTitle),
		PublishedDate:  r.TimePtr(domain.ColumnPublishedDate),
		DocType:        r.String(domain.ColumnDocType),
	}
}
