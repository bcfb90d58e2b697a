package aggregate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/coolbeans/mdatool/pkg/filing"
	"github.com/coolbeans/mdatool/pkg/keyword"
	"github.com/coolbeans/mdatool/pkg/section"
)

// sampleFiling returns a raw 10-K whose MD&A holds body.
func sampleFiling(body string) string {
	return "ANNUAL REPORT\n" +
		"Item 1. Business\n" +
		"We sell anvils.\n" +
		"Item 7. Management's Discussion and Analysis\n" +
		body + "\n" +
		"Item 7A. Quantitative and Qualitative Disclosures\n" +
		"Market risk is low.\n" +
		"Item 8. Financial Statements\n"
}

// growthBody has 249 words, three of them the token "growth".
func growthBody() string {
	return strings.Repeat("Sales of anvils were steady in the period. ", 30) +
		"Revenue growth was strong. growth continued. Expect growth ahead."
}

func mustDocument(t *testing.T, identifier string, raw string) filing.Document {
	t.Helper()
	document, err := filing.NewDocument(identifier, []byte(raw), filing.EncodingUTF8)
	if err != nil {
		t.Fatalf("NewDocument(%q) failed: %v", identifier, err)
	}
	return document
}

func TestProcess_SectionMode(t *testing.T) {
	document := mustDocument(t, "ACME_0001_2001_20010315.txt", sampleFiling(growthBody()))
	aggregator := New(Config{Mode: ModeSection, Keywords: keyword.ParseSpec("growth")})

	result, err := aggregator.Process(document)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Record == nil {
		t.Fatal("expected a record")
	}
	expectedRow := []string{"ACME", "0001", "2001", "20010315", "255", "3"}
	if !reflect.DeepEqual(result.Record.Row(), expectedRow) {
		t.Errorf("row = %q, want %q", result.Record.Row(), expectedRow)
	}
	if result.ArtifactName != "ACME_0001_2001_20010315.mda" {
		t.Errorf("artifact name = %q", result.ArtifactName)
	}
	if result.Section == nil || !strings.HasPrefix(result.Section.Text, "ITEM 7. MANAGEMENT'S DISCUSSION") {
		t.Errorf("unexpected section %+v", result.Section)
	}
	if strings.Contains(result.Section.Text, "MARKET RISK") {
		t.Error("section should stop before ITEM 7A")
	}
	if result.Retried {
		t.Error("did not expect a retry for a long section")
	}
}

func TestProcess_SectionNotFound(t *testing.T) {
	document := mustDocument(t, "ACME_0001_2001_20010315.txt", "Item 1. Business\nNo discussion here.\n")
	aggregator := New(Config{Mode: ModeSection, Keywords: keyword.ParseSpec("growth")})

	result, err := aggregator.Process(document)
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if result.Record != nil {
		t.Error("a skipped document must not yield a record")
	}
}

func TestProcess_DocumentMode(t *testing.T) {
	raw := "Item 1. Business\nGrowth, growth and more growth.\n"
	document := mustDocument(t, "ACME_0001_2001_20010315.txt", raw)
	aggregator := New(Config{Mode: ModeDocument, Keywords: keyword.ParseSpec("growth,more_growth")})

	result, err := aggregator.Process(document)
	if err != nil {
		t.Fatalf("document mode never skips, got %v", err)
	}
	if result.Section != nil || result.ArtifactName != "" {
		t.Error("document mode does not locate sections")
	}

	// Tokens: ITEM 1. BUSINESS GROWTH, GROWTH AND MORE GROWTH.
	expectedRow := []string{"ACME", "0001", "2001", "20010315", "8", "1", "1"}
	if !reflect.DeepEqual(result.Record.Row(), expectedRow) {
		t.Errorf("row = %q, want %q", result.Record.Row(), expectedRow)
	}
}

func TestProcess_EmptyKeywordSpec(t *testing.T) {
	document := mustDocument(t, "ACME_0001_2001_20010315.txt", "Some words here")
	result, err := New(Config{Mode: ModeDocument}).Process(document)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(result.Record.Counts) != 0 || len(result.Record.Row()) != 5 {
		t.Errorf("expected no keyword columns, got %q", result.Record.Row())
	}
}

func TestProcess_UsesConfiguredExtractor(t *testing.T) {
	headings := section.Headings{Start: []string{"\nPART II"}, End: []string{"\nPART III"}}
	extractor := section.NewExtractor(section.NewLocator(headings), section.RetryPolicy{MinBytes: 1})
	document := mustDocument(t, "ACME_0001_2001_20010315.txt", "Intro\nPart II\nprofit profit\nPart III\nprofit")

	result, err := New(Config{Mode: ModeSection, Keywords: keyword.ParseSpec("profit"), Extractor: extractor}).Process(document)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Record.Counts[0] != 2 {
		t.Errorf("profit count = %d, want 2", result.Record.Counts[0])
	}
}

func TestHeader(t *testing.T) {
	header := Header(keyword.ParseSpec("zeta,net_income,alpha"))
	expected := []string{"NAME", "CIK", "YEAR", "FILEDASOFDATE", "TOTALWORDS", "ZETA", "NET_INCOME", "ALPHA"}
	if !reflect.DeepEqual(header, expected) {
		t.Errorf("Header = %q, want %q", header, expected)
	}
}

func TestArtifactName(t *testing.T) {
	testCases := []struct {
		identifier string
		expected   string
	}{
		{identifier: "ACME_0001_2001_20010315.txt", expected: "ACME_0001_2001_20010315.mda"},
		{identifier: "Edgar/10K/ACME_0001_2001_20010315.txt", expected: "ACME_0001_2001_20010315.mda"},
		{identifier: "ACME_0001_2001_20010315", expected: "ACME_0001_2001_20010315.mda"},
	}

	for _, testCase := range testCases {
		if result := ArtifactName(testCase.identifier); result != testCase.expected {
			t.Errorf("ArtifactName(%q) = %q, want %q", testCase.identifier, result, testCase.expected)
		}
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		name     string
		expected Mode
	}{
		{name: "section", expected: ModeSection},
		{name: "MDA", expected: ModeSection},
		{name: "document", expected: ModeDocument},
		{name: "10k", expected: ModeDocument},
	}

	for _, testCase := range testCases {
		mode, err := ParseMode(testCase.name)
		if err != nil || mode != testCase.expected {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", testCase.name, mode, err, testCase.expected)
		}
	}

	if _, err := ParseMode("paragraph"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}
