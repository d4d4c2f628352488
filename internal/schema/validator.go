package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.SchemaValidator = (*Validator)(nil)

// DateLayouts are the accepted string forms of a timestamp column.
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Validator checks structured records against their document schema.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every rule and returns all violations together.
func (v *Validator) Validate(record *domain.StructuredRecord, docType domain.DocumentType) (*domain.ValidatedRecord, error) {
	sch, err := For(docType)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &domain.ValidationError{DocType: docType, Violations: []domain.Violation{{Field: "record", Reason: "missing"}}}
	}

	var violations []domain.Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, domain.Violation{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	switch {
	case !record.Identifier.IsValid():
		add(domain.ColumnDocID, "%q is not %d lowercase hex characters", record.Identifier, domain.IdentifierLength)
	case strings.TrimSpace(record.SourceLocation) != "":
		if want, err := domain.GenerateIdentifier(record.SourceLocation); err == nil && want != record.Identifier {
			add(domain.ColumnDocID, "does not match source location (expected %s)", want)
		}
	}
	if strings.TrimSpace(record.SourceLocation) != "" {
		if err := domain.CheckLocation(record.SourceLocation); err != nil {
			add(domain.ColumnSourceURL, "%v", err)
		}
	}
	if record.DocType != docType {
		add(domain.ColumnDocType, "record is %q, expected %q", record.DocType, docType)
	}

	columns := record.Columns()
	values := make(map[string]any, len(sch.Fields))
	for _, spec := range sch.Fields {
		value, present, reason := normalise(spec, columns[spec.Name])
		switch {
		case reason != "":
			add(spec.Name, "%s", reason)
		case !present && spec.Required:
			add(spec.Name, "required %s is missing", spec.Kind)
		default:
			values[spec.Name] = value
		}
	}

	var unexpected []string
	for name := range columns {
		if _, ok := sch.Field(name); !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	for _, name := range unexpected {
		add(name, "not declared for %s", docType)
	}

	if len(violations) > 0 {
		return nil, &domain.ValidationError{
			Identifier: record.Identifier,
			DocType:    docType,
			Violations: violations,
		}
	}

	return &domain.ValidatedRecord{
		Identifier:     record.Identifier,
		DocType:        docType,
		SourceLocation: record.SourceLocation,
		Values:         values,
	}, nil
}

// normalise converts a raw column value to its schema kind. present is
// false for nil and empty values; reason is set when the value has the
// wrong shape.
func normalise(spec FieldSpec, raw any) (value any, present bool, reason string) {
	if raw == nil {
		return nil, false, ""
	}
	switch spec.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, false, fmt.Sprintf("expected string, got %T", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false, ""
		}
		return s, true, ""

	case KindCategory:
		s, ok := raw.(string)
		if !ok {
			return nil, false, fmt.Sprintf("expected category, got %T", raw)
		}
		if s == "" {
			return nil, false, ""
		}
		for _, allowed := range spec.Allowed {
			if s == allowed {
				return s, true, ""
			}
		}
		return nil, false, fmt.Sprintf("%q is not one of %s", s, strings.Join(spec.Allowed, ", "))

	case KindTimestamp:
		switch t := raw.(type) {
		case time.Time:
			if t.IsZero() {
				return nil, false, ""
			}
			return t.UTC(), true, ""
		case *time.Time:
			if t == nil || t.IsZero() {
				return nil, false, ""
			}
			return t.UTC(), true, ""
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, false, ""
			}
			parsed, err := ParseTimestamp(t)
			if err != nil {
				return nil, false, err.Error()
			}
			return parsed, true, ""
		default:
			return nil, false, fmt.Sprintf("expected timestamp, got %T", raw)
		}

	case KindStringList:
		var items []string
		switch l := raw.(type) {
		case []string:
			items = l
		case []any:
			for _, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, false, fmt.Sprintf("expected string list element, got %T", item)
				}
				items = append(items, s)
			}
		case string:
			items = strings.Split(l, ",")
		default:
			return nil, false, fmt.Sprintf("expected string list, got %T", raw)
		}
		cleaned := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				cleaned = append(cleaned, item)
			}
		}
		if len(cleaned) == 0 {
			return nil, false, ""
		}
		return cleaned, true, ""
	}
	return nil, false, fmt.Sprintf("unknown kind %s", spec.Kind)
}

// ParseTimestamp parses s with the first matching layout in DateLayouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", s)
}
