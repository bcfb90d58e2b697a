package section

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseHeadings_OverridesListsPresentInFile(t *testing.T) {
	data := []byte(`
start:
  - "\nITEM 7."
  - "\nITEM SEVEN"
fallback:
  - "\nITEM 8"
  - "\nSIGNATURES"
`)
	headings, err := ParseHeadings(data)
	if err != nil {
		t.Fatalf("ParseHeadings failed: %v", err)
	}

	if len(headings.Start) != 2 || headings.Start[1] != "\nITEM SEVEN" {
		t.Errorf("start markers = %q", headings.Start)
	}
	if len(headings.Fallback) != 2 || headings.Fallback[1] != "\nSIGNATURES" {
		t.Errorf("fallback markers = %q", headings.Fallback)
	}
	if len(headings.End) != 1 || headings.End[0] != "\nITEM 7A" {
		t.Errorf("end markers should keep defaults, got %q", headings.End)
	}
}

func TestParseHeadings_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "start: [unterminated"},
		{name: "empty start", data: "start: []"},
		{name: "blank marker", data: "end:\n  - \"  \""},
		{name: "no end or fallback", data: "end: []\nfallback: []"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := ParseHeadings([]byte(testCase.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadHeadings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headings.yaml")
	if err := os.WriteFile(path, []byte("retry_end: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	headings, err := LoadHeadings(path)
	if err != nil {
		t.Fatalf("LoadHeadings failed: %v", err)
	}
	if len(headings.RetryEnd) != 0 {
		t.Errorf("retry_end should be cleared, got %q", headings.RetryEnd)
	}

	if _, err := LoadHeadings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestHeadingsFormat(t *testing.T) {
	output := DefaultHeadings().Format()
	for _, expected := range []string{"Start markers:", `"\nITEM 7."`, "Fallback end markers:", `"\nITEM 8"`} {
		if !strings.Contains(output, expected) {
			t.Errorf("Format output missing %q:\n%s", expected, output)
		}
	}
}
