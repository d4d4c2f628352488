package domain

import (
	"sort"
	"strings"
)

// DocumentType is the kind of policy communication a record describes.
// New kinds are added by declaring a constant and registering an extractor.
type DocumentType string

// Known document types.
const (
	DocTypeStatement       DocumentType = "statement"
	DocTypeMinutes         DocumentType = "minutes"
	DocTypeSpeech          DocumentType = "speech"
	DocTypePressConference DocumentType = "press_conference"
	DocTypeTestimony       DocumentType = "testimony"
	DocTypeReport          DocumentType = "report"
)

// AllDocumentTypes returns every known document type.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocTypeStatement,
		DocTypeMinutes,
		DocTypeSpeech,
		DocTypePressConference,
		DocTypeTestimony,
		DocTypeReport,
	}
}

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocTypeStatement, DocTypeMinutes, DocTypeSpeech,
		DocTypePressConference, DocTypeTestimony, DocTypeReport:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

var docTypeAliases = map[string]DocumentType{
	"statement":         DocTypeStatement,
	"statements":        DocTypeStatement,
	"minutes":           DocTypeMinutes,
	"speech":            DocTypeSpeech,
	"speeches":          DocTypeSpeech,
	"press_conference":  DocTypePressConference,
	"press-conference":  DocTypePressConference,
	"press_conferences": DocTypePressConference,
	"press-conferences": DocTypePressConference,
	"testimony":         DocTypeTestimony,
	"testimonies":       DocTypeTestimony,
	"report":            DocTypeReport,
	"reports":           DocTypeReport,
}

// ParseDocumentType maps a user-facing name, singular or plural, to a
// DocumentType. Unknown names are returned as-is so that the extractor
// registry can report them.
func ParseDocumentType(name string) DocumentType {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := docTypeAliases[key]; ok {
		return t
	}
	return DocumentType(key)
}

// DocumentTypeNames returns the accepted CLI names, sorted.
func DocumentTypeNames() []string {
	names := make([]string, 0, len(docTypeAliases))
	for name := range docTypeAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
