package filing

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		encoding Encoding
		expected string
	}{
		{name: "utf-8", data: []byte("Net income €5"), encoding: EncodingUTF8, expected: "Net income €5"},
		{name: "utf-8 bom dropped", data: []byte("\xef\xbb\xbfITEM 7"), encoding: EncodingUTF8, expected: "ITEM 7"},
		{name: "default is utf-8", data: []byte("plain"), encoding: "", expected: "plain"},
		{name: "latin-1", data: []byte("caf\xe9"), encoding: EncodingISO88591, expected: "café"},
		{name: "windows-1252 quotes", data: []byte("\x93MD&A\x94"), encoding: EncodingWindows1252, expected: "“MD&A”"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := Decode(testCase.data, testCase.encoding)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if result != testCase.expected {
				t.Errorf("Decode = %q, want %q", result, testCase.expected)
			}
		})
	}
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode([]byte("caf\xe9 au lait"), EncodingUTF8)
	if err == nil {
		t.Fatal("expected an error for invalid UTF-8")
	}
	if !errors.Is(err, ErrDecoding) {
		t.Errorf("error %v does not match ErrDecoding", err)
	}
}

func TestParseEncoding(t *testing.T) {
	testCases := []struct {
		name     string
		expected Encoding
	}{
		{name: "", expected: EncodingUTF8},
		{name: "UTF8", expected: EncodingUTF8},
		{name: "latin1", expected: EncodingISO88591},
		{name: "ISO-8859-1", expected: EncodingISO88591},
		{name: "cp1252", expected: EncodingWindows1252},
	}

	for _, testCase := range testCases {
		result, err := ParseEncoding(testCase.name)
		if err != nil || result != testCase.expected {
			t.Errorf("ParseEncoding(%q) = %q, %v; want %q", testCase.name, result, err, testCase.expected)
		}
	}

	if _, err := ParseEncoding("ebcdic"); err == nil {
		t.Error("expected an error for an unsupported encoding")
	}
}

func TestNewDocument(t *testing.T) {
	document, err := NewDocument("ACME_0001_2001_20010315.txt", []byte("ITEM 7"), EncodingUTF8)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if document.Metadata.Name != "ACME" || document.Text != "ITEM 7" || document.Identifier != "ACME_0001_2001_20010315.txt" {
		t.Errorf("unexpected document %+v", document)
	}

	if _, err := NewDocument("bad.txt", []byte("x"), EncodingUTF8); !errors.Is(err, ErrMalformedIdentifier) {
		t.Errorf("expected ErrMalformedIdentifier, got %v", err)
	}
	if _, err := NewDocument("ACME_0001_2001_20010315.txt", []byte{0xff, 0xfe, 0xfd}, EncodingUTF8); !errors.Is(err, ErrDecoding) {
		t.Errorf("expected ErrDecoding, got %v", err)
	}
}
