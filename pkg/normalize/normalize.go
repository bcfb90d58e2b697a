// Package normalize canonicalizes raw filing text into the line and heading
// shape expected by the section locator and keyword counter.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	// trailingSpacePattern matches runs of spaces immediately before a newline.
	trailingSpacePattern = regexp.MustCompile(`[ ]+\n`)

	// leadingSpacePattern matches runs of spaces immediately after a newline.
	leadingSpacePattern = regexp.MustCompile(`\n[ ]+`)

	// newlineRunPattern matches consecutive newlines.
	newlineRunPattern = regexp.MustCompile(`\n+`)
)

// Rule is a literal rewrite applied to single-newline text.
type Rule struct {
	// Name describes the repair for diagnostics and tests.
	Name string

	// Old is the literal text to replace.
	Old string

	// New is the replacement.
	New string
}

// RepairRules repair heading tokens and numeric symbols that column-wrapped
// filings split across lines. Order matters.
var RepairRules = []Rule{
	{Name: "lone period", Old: "\n.\n", New: ".\n"},
	{Name: "split item", Old: "\nI\nTEM", New: "\nITEM"},
	{Name: "wrapped item", Old: "\nITEM\n", New: "\nITEM "},
	{Name: "item double space", Old: "\nITEM  ", New: "\nITEM "},
	{Name: "colon terminator", Old: ":\n", New: ".\n"},
	{Name: "dollar wrap", Old: "$\n", New: "$"},
	{Name: "percent wrap", Old: "\n%", New: "%"},
}

// Text returns the canonical form of raw filing text.
//
// The transform is total and idempotent: Text(Text(x)) == Text(x).
func Text(raw string) string {
	text := norm.NFKD.String(raw)
	text = canonicalLineEndings(text)
	text = cases.Upper(language.Und).String(text)

	text = trailingSpacePattern.ReplaceAllString(text, "\n")
	text = leadingSpacePattern.ReplaceAllString(text, "\n")
	text = newlineRunPattern.ReplaceAllString(text, "\n")

	text = Repair(text)

	return strings.ReplaceAll(text, "\n", "\n\n")
}

// Repair applies RepairRules until none of them matches.
//
// Every rule shortens the text or removes a newline or colon without adding
// one, so the loop terminates.
func Repair(text string) string {
	for {
		changed := false
		for _, rule := range RepairRules {
			if !strings.Contains(text, rule.Old) {
				continue
			}
			text = strings.ReplaceAll(text, rule.Old, rule.New)
			changed = true
		}
		if !changed {
			return text
		}
	}
}

// canonicalLineEndings rewrites every Unicode line boundary to "\n" and drops
// a single terminal boundary.
func canonicalLineEndings(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	endsWithBreak := false
	runes := []rune(text)
	for index := 0; index < len(runes); index++ {
		current := runes[index]
		if !isLineBoundary(current) {
			builder.WriteRune(current)
			endsWithBreak = false
			continue
		}
		if current == '\r' && index+1 < len(runes) && runes[index+1] == '\n' {
			index++
		}
		builder.WriteByte('\n')
		endsWithBreak = true
	}

	result := builder.String()
	if endsWithBreak {
		result = result[:len(result)-1]
	}
	return result
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
