package filing

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrDecoding is matched by errors for bytes that are not valid text in the
// expected encoding.
var ErrDecoding = errors.New("filing text could not be decoded")

// Encoding names a supported source encoding.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingISO88591    Encoding = "iso-8859-1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ParseEncoding resolves a user supplied encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-1", "latin1", "latin-1":
		return EncodingISO88591, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %q (available: utf-8, iso-8859-1, windows-1252)", name)
	}
}

// Decode converts raw bytes to a string. UTF-8 input with invalid sequences
// is rejected rather than repaired; a leading byte order mark is dropped.
func Decode(data []byte, sourceEncoding Encoding) (string, error) {
	var transformer transform.Transformer
	switch sourceEncoding {
	case EncodingUTF8, "":
		transformer = transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder())
	case EncodingISO88591:
		transformer = charmap.ISO8859_1.NewDecoder()
	case EncodingWindows1252:
		transformer = charmap.Windows1252.NewDecoder()
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrDecoding, sourceEncoding)
	}

	decoded, _, err := transform.Bytes(transformer, data)
	if err != nil {
		return "", fmt.Errorf("%w as %s: %v", ErrDecoding, sourceEncoding, err)
	}
	return string(decoded), nil
}

// NewDocument decodes raw bytes and parses the identifier into a Document.
func NewDocument(identifier string, data []byte, sourceEncoding Encoding) (Document, error) {
	metadata, err := ParseIdentifier(identifier)
	if err != nil {
		return Document{}, err
	}

	text, err := Decode(data, sourceEncoding)
	if err != nil {
		return Document{}, fmt.Errorf("decoding %s: %w", identifier, err)
	}

	return Document{
		Identifier: identifier,
		Metadata:   metadata,
		Text:       text,
	}, nil
}
