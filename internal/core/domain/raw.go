package domain

import "time"

// RawArtifact is the byte-for-byte content fetched for a source location.
// Once written it is never modified or deleted by the pipeline.
type RawArtifact struct {
	Identifier     Identifier
	SourceLocation string
	ContentType    string
	Content        []byte
	FetchedAt      time.Time
}

// SourceRef is one discovered input to a batch.
type SourceRef struct {
	// Location is the canonical source location used for identity.
	Location string

	// Path is a local file holding the bytes, when the source is local.
	// Empty means Location itself is fetched.
	Path string

	// DocType restricts the reference to one document type when set.
	DocType DocumentType
}

// FetchLocation returns where the bytes for this reference are read from.
func (r SourceRef) FetchLocation() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Location
}

// StoredArtifact describes a raw artifact already on disk.
type StoredArtifact struct {
	Identifier Identifier
	Path       string
	Size       int64
	ModTime    time.Time
}
