package extractors

import (
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/extractors/fomc"
	"github.com/policyledger/fedledger/internal/extractors/report"
	"github.com/policyledger/fedledger/internal/extractors/speech"
)

// RegisterDefaults registers the built-in extractor for every known document type.
func RegisterDefaults(r *Registry) {
	r.Register(domain.DocTypeStatement, fomc.NewStatement())
	r.Register(domain.DocTypeMinutes, fomc.NewMinutes())
	r.Register(domain.DocTypePressConference, fomc.NewPressConference())
	r.Register(domain.DocTypeSpeech, speech.New(domain.DocTypeSpeech))
	r.Register(domain.DocTypeTestimony, speech.New(domain.DocTypeTestimony))
	r.Register(domain.DocTypeReport, report.New())
}

// NewDefaultRegistry returns a registry with RegisterDefaults applied.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
