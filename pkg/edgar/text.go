package edgar

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText returns the text nodes of an HTML or SGML filing joined by
// newlines. Script and style content is dropped. Plain text passes through
// as a single text node.
func HTMLToText(reader io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(reader)

	var builder strings.Builder
	skipDepth := 0
	first := true

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenizing filing: %w", err)
			}
			return builder.String(), nil

		case html.StartTagToken:
			if isSkippedElement(tokenizer) {
				skipDepth++
			}

		case html.EndTagToken:
			if skipDepth > 0 && isSkippedElement(tokenizer) {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if !first {
				builder.WriteByte('\n')
			}
			builder.Write(tokenizer.Text())
			first = false
		}
	}
}

func isSkippedElement(tokenizer *html.Tokenizer) bool {
	name, _ := tokenizer.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// FilterText replaces every character outside ASCII letters, digits, '.',
// ',', ':', newline, tab and backspace with a space.
func FilterText(text string) string {
	return strings.Map(func(character rune) rune {
		if isKept(character) {
			return character
		}
		return ' '
	}, text)
}

func isKept(character rune) bool {
	switch {
	case character >= 'a' && character <= 'z',
		character >= 'A' && character <= 'Z',
		character >= '0' && character <= '9':
		return true
	}
	switch character {
	case '.', ',', ':', '\n', '\t', '\b':
		return true
	}
	return false
}

// ConvertFiling turns a raw filing body into filtered plain text.
func ConvertFiling(body []byte) ([]byte, error) {
	text, err := HTMLToText(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return []byte(FilterText(text)), nil
}
