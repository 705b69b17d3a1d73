package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText folds text into NFC and collapses whitespace runs.
// Decomposed Hangul jamo come out composed.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// FirstSentence returns the first sentence of s, terminator included.
// Line breaks end a sentence as well.
func FirstSentence(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	for i, r := range s {
		switch r {
		case '\n', '\r':
			return strings.TrimSpace(s[:i])
		case '.', '!', '?', '。', '！', '？':
			end := i + utf8.RuneLen(r)
			// "3.5" is not a sentence end
			if r == '.' && end < len(s) && s[end] != ' ' && s[end] != '\n' && s[end] != '\t' {
				continue
			}
			return strings.TrimSpace(s[:end])
		}
	}
	return s
}

// Truncate cuts s to at most max runes, appending an ellipsis when shortened.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
