// Package filing models a regulatory filing document and recovers its
// metadata from the storage identifier.
package filing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformedIdentifier is matched by errors for identifiers that do not
// follow the {NAME}_{CIK}_{YEAR}_{FILEDASOFDATE}.{ext} pattern.
var ErrMalformedIdentifier = errors.New("malformed filing identifier")

// Metadata identifies a filing.
type Metadata struct {
	Name         string `json:"name"`
	RegistrantID string `json:"registrant_id"`
	Year         string `json:"year"`
	FiledDate    string `json:"filed_date"`
}

// Document is the raw text of a filing plus its metadata.
type Document struct {
	// Identifier is the storage name the document was loaded from.
	Identifier string

	Metadata Metadata

	// Text is the decoded, not yet normalized, filing body.
	Text string
}

// IdentifierError reports why an identifier could not be parsed.
type IdentifierError struct {
	Identifier string
	Reason     string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("malformed filing identifier %q: %s", e.Identifier, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedIdentifier.
func (e *IdentifierError) Unwrap() error {
	return ErrMalformedIdentifier
}

// ParseIdentifier recovers metadata from a storage identifier such as
// "ACME_0001_2001_20010315.txt". Directories and the extension are ignored.
// Fields are taken from the right so company names may contain underscores.
func ParseIdentifier(identifier string) (Metadata, error) {
	base := filepath.Base(identifier)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	fields := strings.Split(stem, "_")
	if len(fields) < 4 {
		return Metadata{}, &IdentifierError{
			Identifier: identifier,
			Reason:     fmt.Sprintf("expected 4 underscore-separated fields, found %d", len(fields)),
		}
	}

	fieldCount := len(fields)
	metadata := Metadata{
		Name:         strings.Join(fields[:fieldCount-3], "_"),
		RegistrantID: fields[fieldCount-3],
		Year:         fields[fieldCount-2],
		FiledDate:    fields[fieldCount-1],
	}

	switch {
	case metadata.Name == "":
		return Metadata{}, &IdentifierError{Identifier: identifier, Reason: "empty name"}
	case !isDigits(metadata.RegistrantID):
		return Metadata{}, &IdentifierError{Identifier: identifier, Reason: fmt.Sprintf("registrant id %q is not numeric", metadata.RegistrantID)}
	case len(metadata.Year) != 4 || !isDigits(metadata.Year):
		return Metadata{}, &IdentifierError{Identifier: identifier, Reason: fmt.Sprintf("year %q is not a four digit year", metadata.Year)}
	case !isDate(metadata.FiledDate):
		return Metadata{}, &IdentifierError{Identifier: identifier, Reason: fmt.Sprintf("filed date %q is not a date", metadata.FiledDate)}
	}

	return metadata, nil
}

// Identifier builds the storage identifier for metadata with the given
// extension (including the dot).
func (metadata Metadata) Identifier(extension string) string {
	return strings.Join([]string{metadata.Name, metadata.RegistrantID, metadata.Year, metadata.FiledDate}, "_") + extension
}

// SanitizeName strips the characters that would break an identifier or a
// path from a company name: spaces, slashes, backslashes and underscores.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', '_':
			return -1
		}
		return r
	}, name)
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDate(value string) bool {
	digits := 0
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
		default:
			return false
		}
	}
	return digits > 0
}
