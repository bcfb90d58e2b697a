// Package keyword parses keyword lists and counts keyword occurrences in
// filing text.
//
// Two counting units coexist. A single-token keyword counts whitespace
// tokens equal to it. A phrase keyword counts pseudo-sentences (text split on
// newlines and periods) that contain it, so a phrase repeated inside one
// pseudo-sentence counts once.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes the two matching semantics.
type Kind int

const (
	// SingleToken keywords match whole whitespace-delimited tokens.
	SingleToken Kind = iota

	// Phrase keywords contain whitespace and match per pseudo-sentence.
	Phrase
)

// String returns the kind name.
func (kind Kind) String() string {
	switch kind {
	case SingleToken:
		return "single-token"
	case Phrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// Keyword is a case-folded keyword tagged with its matching semantics.
type Keyword struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// New decomposes (NFKD) and case-folds text, matching normalized filing
// text, and classifies it.
func New(text string) Keyword {
	folded := strings.ToLower(norm.NFKD.String(text))
	kind := SingleToken
	if strings.IndexFunc(folded, unicode.IsSpace) != -1 {
		kind = Phrase
	}
	return Keyword{Text: folded, Kind: kind}
}

// Header returns the output column name for the keyword.
func (keyword Keyword) Header() string {
	return strings.Join(strings.Fields(strings.ToUpper(keyword.Text)), "_")
}

// Spec is an ordered keyword list. Order fixes output column order.
type Spec []Keyword

// NewSpec builds a Spec from already-split keywords, skipping blank entries.
func NewSpec(words ...string) Spec {
	spec := make(Spec, 0, len(words))
	for _, word := range words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		spec = append(spec, New(strings.TrimSpace(word)))
	}
	return spec
}

// ParseSpec parses a comma-separated keyword list. Underscores stand for
// spaces so phrases can be passed without shell quoting:
// "profit,net_income" yields "profit" and the phrase "net income".
func ParseSpec(raw string) Spec {
	if strings.TrimSpace(raw) == "" {
		return Spec{}
	}
	words := strings.Split(strings.ReplaceAll(raw, "_", " "), ",")
	return NewSpec(words...)
}

// Headers returns the column names in spec order.
func (spec Spec) Headers() []string {
	headers := make([]string, len(spec))
	for index, keyword := range spec {
		headers[index] = keyword.Header()
	}
	return headers
}

// Strings returns the keyword texts in spec order.
func (spec Spec) Strings() []string {
	texts := make([]string, len(spec))
	for index, keyword := range spec {
		texts[index] = keyword.Text
	}
	return texts
}
