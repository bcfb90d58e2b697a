package section

import (
	"strings"
	"unicode"
)

// Section is a located span of normalized text.
type Section struct {
	// Start is the offset of the first non-space byte of the section.
	Start int `json:"start"`

	// End is the offset one past the last non-space byte of the section.
	End int `json:"end"`

	// Text is the trimmed section content, text[Start:End].
	Text string `json:"text"`
}

// Match is the outcome of one locate attempt.
type Match struct {
	// Section is nil when no section was found.
	Section *Section

	// RetryOffset is the absolute offset of the end marker of a found
	// section, and 0 when nothing was found.
	RetryOffset int
}

// Found reports whether the attempt produced a section.
func (match Match) Found() bool {
	return match.Section != nil
}

// Locator finds a section bounded by ordered marker lists.
type Locator struct {
	headings Headings
}

// NewLocator creates a Locator for the given markers.
func NewLocator(headings Headings) *Locator {
	return &Locator{headings: headings}
}

// Headings returns the markers the locator searches for.
func (locator *Locator) Headings() Headings {
	return locator.headings
}

// Locate searches text starting at searchFrom. A non-zero searchFrom marks a
// re-entry past a rejected match, which also accepts RetryEnd markers.
func (locator *Locator) Locate(text string, searchFrom int) Match {
	if searchFrom < 0 || searchFrom >= len(text) {
		return Match{}
	}
	window := text[searchFrom:]

	start := indexFirstMarker(window, locator.headings.Start, 0)
	if start == -1 {
		return Match{}
	}

	end := indexFirstMarker(window, locator.endMarkers(searchFrom != 0), start+1)
	if end == -1 {
		end = indexFirstMarker(window, locator.headings.Fallback, start+1)
	}
	if end <= start {
		return Match{}
	}

	raw := window[start:end]
	leading := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	trimmed := strings.TrimSpace(raw)
	sectionStart := searchFrom + start + leading

	return Match{
		Section: &Section{
			Start: sectionStart,
			End:   sectionStart + len(trimmed),
			Text:  trimmed,
		},
		RetryOffset: searchFrom + end,
	}
}

// endMarkers returns the end markers for a first attempt or a retry.
func (locator *Locator) endMarkers(retry bool) []string {
	if !retry {
		return locator.headings.End
	}
	markers := make([]string, 0, len(locator.headings.End)+len(locator.headings.RetryEnd))
	markers = append(markers, locator.headings.End...)
	return append(markers, locator.headings.RetryEnd...)
}

// indexFirstMarker returns the position of the first marker, in list order,
// that occurs in text at or after from. Later markers are only tried when
// earlier ones do not occur at all.
func indexFirstMarker(text string, markers []string, from int) int {
	if from > len(text) {
		return -1
	}
	for _, marker := range markers {
		if position := strings.Index(text[from:], marker); position != -1 {
			return from + position
		}
	}
	return -1
}
