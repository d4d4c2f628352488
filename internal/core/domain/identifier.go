package domain

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// IdentifierLength is the number of hex characters in an Identifier.
const IdentifierLength = 16

// Identifier is the stable key of a document across raw files,
// metadata entries and columnar rows.
type Identifier string

// String returns the identifier as a plain string.
func (id Identifier) String() string {
	return string(id)
}

// IsValid reports whether id is exactly IdentifierLength lowercase hex characters.
func (id Identifier) IsValid() bool {
	if len(id) != IdentifierLength {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// GenerateIdentifier derives the identifier for a source location.
// The same location always yields the same identifier.
func GenerateIdentifier(location string) (Identifier, error) {
	if err := CheckLocation(location); err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(location)) //nolint:gosec // content addressing, not security
	return Identifier(hex.EncodeToString(sum[:])[:IdentifierLength]), nil
}

// CheckLocation reports whether location can be used as a source location.
func CheckLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return &InvalidInputError{Location: location, Reason: "empty"}
	}
	for _, r := range location {
		if unicode.IsControl(r) {
			return &InvalidInputError{Location: location, Reason: "contains control characters"}
		}
	}
	u, err := url.Parse(location)
	if err != nil {
		return &InvalidInputError{Location: location, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return &InvalidInputError{Location: location, Reason: "missing scheme"}
	}
	if u.Host == "" && u.Path == "" && u.Opaque == "" {
		return &InvalidInputError{Location: location, Reason: "missing host and path"}
	}
	return nil
}

// FileLocation returns the file:// location for a local path.
func FileLocation(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &InvalidInputError{Location: path, Reason: err.Error()}
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
