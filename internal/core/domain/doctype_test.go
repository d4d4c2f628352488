package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	tests := map[string]DocumentType{
		"statements":        DocTypeStatement,
		"Statement":         DocTypeStatement,
		"minutes":           DocTypeMinutes,
		"speeches":          DocTypeSpeech,
		"press-conferences": DocTypePressConference,
		"press_conference":  DocTypePressConference,
		"testimony":         DocTypeTestimony,
		" reports ":         DocTypeReport,
		"memo":              DocumentType("memo"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDocumentType(in), in)
	}
}

func TestDocumentType_IsValid(t *testing.T) {
	for _, dt := range AllDocumentTypes() {
		assert.True(t, dt.IsValid(), dt)
	}
	assert.False(t, DocumentType("memo").IsValid())
	assert.False(t, DocumentType("").IsValid())
}

func TestDocumentTypeNames_Sorted(t *testing.T) {
	names := DocumentTypeNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "statements")
}
