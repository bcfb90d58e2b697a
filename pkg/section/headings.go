// Package section locates the Management Discussion & Analysis section in
// normalized 10-K text.
package section

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Headings lists the accepted marker spellings, each list in priority order.
// Markers are literal substrings of normalized (uppercased, newline-doubled)
// text; a leading "\n" anchors a marker to the start of a line.
type Headings struct {
	// Start markers open the section. The first marker found anywhere wins.
	Start []string `yaml:"start" json:"start"`

	// End markers close the section.
	End []string `yaml:"end" json:"end"`

	// RetryEnd markers are additionally accepted as end markers when a
	// search is re-entered past a rejected match.
	RetryEnd []string `yaml:"retry_end" json:"retry_end"`

	// Fallback markers are tried only when no End (or RetryEnd) marker is found.
	Fallback []string `yaml:"fallback" json:"fallback"`
}

// DefaultHeadings returns the MD&A markers used for EDGAR 10-K filings.
func DefaultHeadings() Headings {
	return Headings{
		Start: []string{
			"\nITEM 7.",
			"\nITEM 7 –",
			"\nITEM 7:",
			"\nITEM 7 ",
			"\nITEM 7\n",
		},
		End:      []string{"\nITEM 7A"},
		RetryEnd: []string{"\nITEM 7"},
		Fallback: []string{"\nITEM 8"},
	}
}

// Validate checks that the marker lists can bound a section.
func (headings Headings) Validate() error {
	if len(headings.Start) == 0 {
		return fmt.Errorf("headings: at least one start marker is required")
	}
	if len(headings.End) == 0 && len(headings.Fallback) == 0 {
		return fmt.Errorf("headings: at least one end or fallback marker is required")
	}

	lists := map[string][]string{
		"start":     headings.Start,
		"end":       headings.End,
		"retry_end": headings.RetryEnd,
		"fallback":  headings.Fallback,
	}
	for listName, markers := range lists {
		for index, marker := range markers {
			if strings.TrimSpace(marker) == "" {
				return fmt.Errorf("headings: %s marker %d is blank", listName, index)
			}
		}
	}
	return nil
}

// LoadHeadings reads a YAML marker file. Lists left out of the file keep
// their default values.
func LoadHeadings(path string) (Headings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Headings{}, fmt.Errorf("reading headings file: %w", err)
	}
	return ParseHeadings(data)
}

// ParseHeadings decodes YAML marker lists over DefaultHeadings.
func ParseHeadings(data []byte) (Headings, error) {
	var fromFile Headings
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Headings{}, fmt.Errorf("parsing headings YAML: %w", err)
	}

	headings := DefaultHeadings()
	if fromFile.Start != nil {
		headings.Start = fromFile.Start
	}
	if fromFile.End != nil {
		headings.End = fromFile.End
	}
	if fromFile.RetryEnd != nil {
		headings.RetryEnd = fromFile.RetryEnd
	}
	if fromFile.Fallback != nil {
		headings.Fallback = fromFile.Fallback
	}

	if err := headings.Validate(); err != nil {
		return Headings{}, err
	}
	return headings, nil
}

// Format renders the marker lists with escaped newlines for display.
func (headings Headings) Format() string {
	var builder strings.Builder

	writeList := func(title string, markers []string) {
		builder.WriteString(fmt.Sprintf("%s:\n", title))
		if len(markers) == 0 {
			builder.WriteString("  (none)\n")
			return
		}
		for index, marker := range markers {
			builder.WriteString(fmt.Sprintf("  %d. %q\n", index+1, marker))
		}
	}

	writeList("Start markers", headings.Start)
	writeList("End markers", headings.End)
	writeList("Retry end markers", headings.RetryEnd)
	writeList("Fallback end markers", headings.Fallback)

	return builder.String()
}
