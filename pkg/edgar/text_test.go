package edgar

import (
	"strings"
	"testing"
)

func TestHTMLToText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "text nodes joined by newlines",
			input:    "<html><body><p>Item 7.</p><p>Results &amp; outlook</p></body></html>",
			expected: "Item 7.\nResults & outlook",
		},
		{
			name:     "script and style dropped",
			input:    "<style>p{}</style><p>Kept</p><script>var x = 1;</script>",
			expected: "Kept",
		},
		{
			name:     "plain text passes through",
			input:    "ITEM 7. MANAGEMENT\nSales grew.",
			expected: "ITEM 7. MANAGEMENT\nSales grew.",
		},
		{
			name:     "sgml wrapper",
			input:    "<DOCUMENT>\n<TYPE>10-K\n<TEXT>\nAnnual report\n</TEXT>\n</DOCUMENT>",
			expected: "\n\n10-K\n\n\nAnnual report\n\n\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := HTMLToText(strings.NewReader(testCase.input))
			if err != nil {
				t.Fatalf("HTMLToText failed: %v", err)
			}
			if result != testCase.expected {
				t.Errorf("HTMLToText = %q, want %q", result, testCase.expected)
			}
		})
	}
}

func TestFilterText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Net income: $1,234.5", expected: "Net income:  1,234.5"},
		{input: "Results & outlook", expected: "Results   outlook"},
		{input: "line\n\tindent", expected: "line\n\tindent"},
		{input: "CAFÉ", expected: "CAF "},
		{input: "50% (approx.)", expected: "50   approx. "},
	}

	for _, testCase := range testCases {
		if result := FilterText(testCase.input); result != testCase.expected {
			t.Errorf("FilterText(%q) = %q, want %q", testCase.input, result, testCase.expected)
		}
	}
}

func TestConvertFiling(t *testing.T) {
	converted, err := ConvertFiling([]byte("<p>Sales &mdash; up 5%</p><p>Item 7A</p>"))
	if err != nil {
		t.Fatalf("ConvertFiling failed: %v", err)
	}
	if string(converted) != "Sales   up 5 \nItem 7A" {
		t.Errorf("ConvertFiling = %q", converted)
	}
}
