package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// Typed errors below unwrap to one of these so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetch indicates source bytes could not be retrieved or preserved.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates an extractor could not produce a record.
	ErrExtraction = errors.New("extraction failed")

	// ErrValidation indicates a record does not satisfy its schema.
	ErrValidation = errors.New("validation failed")

	// ErrSchemaMismatch indicates an existing sink has a different shape.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnregisteredType indicates no extractor exists for a document type.
	ErrUnregisteredType = errors.New("unregistered document type")

	// ErrWrite indicates a sink could not be written.
	ErrWrite = errors.New("write failed")

	// ErrInvalidSettings indicates configuration failed validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// InvalidInputError reports an unusable source location.
type InvalidInputError struct {
	Location string
	Reason   string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid source location %q: %s", e.Location, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// FetchError reports a failure retrieving or preserving source bytes.
type FetchError struct {
	Location   string
	Identifier Identifier
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// ExtractionError reports an extractor failure for one document.
type ExtractionError struct {
	Identifier Identifier
	Location   string
	Reason     string
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s: %s", e.Identifier, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExtraction}
	}
	return []error{ErrExtraction, e.Err}
}

// Violation is one failed schema check.
type Violation struct {
	Field  string
	Reason string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// ValidationError carries every violation found for a record.
type ValidationError struct {
	Identifier Identifier
	DocType    DocumentType
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("validate %s as %s: %s", e.Identifier, e.DocType, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields returns the names of all violating fields in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// SchemaMismatchError reports that an existing sink cannot take the batch's columns.
type SchemaMismatchError struct {
	Path       string
	DocType    DocumentType
	Missing    []string
	Unexpected []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("existing sink %s does not match %s schema (missing %v, unexpected %v)",
		e.Path, e.DocType, e.Missing, e.Unexpected)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// UnregisteredTypeError reports a document type with no extractor.
type UnregisteredTypeError struct {
	DocType DocumentType
}

func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("no extractor registered for document type %q", string(e.DocType))
}

func (e *UnregisteredTypeError) Unwrap() error { return ErrUnregisteredType }

// WriteError reports a failed flush of validated records.
type WriteError struct {
	Path      string
	Validated int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (%d validated records not persisted): %v", e.Path, e.Validated, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }
