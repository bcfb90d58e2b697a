package keyword

import (
	"strings"
)

// Count returns the occurrences of keyword in text under the keyword's
// matching semantics. Text and keyword are compared case-folded.
func Count(text string, keyword Keyword) int {
	return countFolded(strings.ToLower(text), New(keyword.Text))
}

// CountAll folds text once and counts every keyword in spec order.
func CountAll(text string, spec Spec) []int {
	folded := strings.ToLower(text)
	counts := make([]int, len(spec))
	for index, keyword := range spec {
		counts[index] = countFolded(folded, keyword)
	}
	return counts
}

// TotalWords returns the number of whitespace-delimited tokens in text.
func TotalWords(text string) int {
	return len(strings.Fields(text))
}

func countFolded(folded string, keyword Keyword) int {
	if keyword.Kind == Phrase {
		return countSentences(folded, keyword.Text)
	}
	return countTokens(folded, keyword.Text)
}

// countTokens counts tokens exactly equal to word. "profit" does not match
// "profits", "nonprofit" or "profit.".
func countTokens(text string, word string) int {
	count := 0
	for _, token := range strings.Fields(text) {
		if token == word {
			count++
		}
	}
	return count
}

// countSentences counts pseudo-sentences containing phrase. Newlines are
// treated as periods before splitting on periods.
func countSentences(text string, phrase string) int {
	if phrase == "" {
		return 0
	}
	count := 0
	for _, sentence := range PseudoSentences(text) {
		if strings.Contains(sentence, phrase) {
			count++
		}
	}
	return count
}

// PseudoSentences splits text on newlines and periods. Empty pieces are kept
// so the split is a plain function of the input.
func PseudoSentences(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\n", "."), ".")
}
