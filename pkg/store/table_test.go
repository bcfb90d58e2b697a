package store

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTableWriter_QuotesEveryField(t *testing.T) {
	testCases := []struct {
		name     string
		rows     [][]string
		crlf     bool
		expected string
	}{
		{
			name:     "numbers quoted",
			rows:     [][]string{{"NAME", "TOTALWORDS"}, {"ACME", "255"}},
			expected: "\"NAME\",\"TOTALWORDS\"\n\"ACME\",\"255\"\n",
		},
		{
			name:     "embedded quote doubled",
			rows:     [][]string{{`ACME "NEW"`, "a,b"}},
			expected: "\"ACME \"\"NEW\"\"\",\"a,b\"\n",
		},
		{
			name:     "empty field",
			rows:     [][]string{{"", "x"}},
			expected: "\"\",\"x\"\n",
		},
		{
			name:     "crlf",
			rows:     [][]string{{"a"}, {"b"}},
			crlf:     true,
			expected: "\"a\"\r\n\"b\"\r\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var buffer bytes.Buffer
			writer := NewTableWriter(&buffer)
			writer.UseCRLF = testCase.crlf
			if err := writer.WriteAll(testCase.rows); err != nil {
				t.Fatalf("WriteAll failed: %v", err)
			}
			if buffer.String() != testCase.expected {
				t.Errorf("output = %q, want %q", buffer.String(), testCase.expected)
			}
		})
	}
}

func TestTableFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "keywords.csv")
	rows := [][]string{
		{"NAME", "CIK", "YEAR", "FILEDASOFDATE", "TOTALWORDS", "NET_INCOME"},
		{"ACME", "0001", "2001", "20010315", "255", "3"},
	}

	if err := WriteTableFile(path, rows); err != nil {
		t.Fatalf("WriteTableFile failed: %v", err)
	}
	readBack, err := ReadTableFile(path)
	if err != nil {
		t.Fatalf("ReadTableFile failed: %v", err)
	}
	if !reflect.DeepEqual(readBack, rows) {
		t.Errorf("read back %q, want %q", readBack, rows)
	}
}
