// Package corpus turns raw training text into the filtered word-count table
// the model is built from.
package corpus

import (
	"strings"
)

// dropped characters vanish without splitting the word around them.
const dropped = ",'\";:?!()<>_0123456789"

// Clean lowercases text and splits it into words made only of 'a'-'z'.
// Quotes, brackets and digits are deleted in place, so "don't" becomes
// "dont". Hyphens, dots and line breaks split words. Any token that still
// holds another character is discarded whole.
func Clean(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case strings.ContainsRune(dropped, r):
			continue
		case r == '-' || r == '.' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	fields := strings.Split(strings.ToLower(b.String()), " ")
	words := fields[:0]
	for _, f := range fields {
		if f != "" && IsWord(f) {
			words = append(words, f)
		}
	}
	return words
}

// IsWord reports whether s is non-empty and made only of 'a'-'z'.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
