package util

import (
	"strings"
	"unicode"
)

// Stopwords are brand and filler words that carry no product identity in
// seller listing names.
var Stopwords = map[string]struct{}{
	"bihari":  {},
	"mithila": {},
	"foods":   {},
	"desi":    {},
	"plain":   {},
	"high":    {},
	"protein": {},
}

// NameKey lowercases the input, replaces punctuation with spaces and
// collapses whitespace runs. Every exact-name lookup goes through this.
func NameKey(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the name-key words longer than two characters.
func Words(input string) []string {
	fields := strings.Fields(NameKey(input))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// Keywords is Words with Stopwords removed; these drive the last-resort
// keyword match and the token index.
func Keywords(input string) []string {
	words := Words(input)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := Stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsEmptyCell reports whether a spreadsheet cell holds no real value.
// Exporters emit literal "nan"/"none"/"null" strings for blanks.
func IsEmptyCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null", "n/a":
		return true
	}
	return false
}

// TruncateName shortens a product name for fixed-width outputs, keeping an
// ellipsis when anything was cut.
func TruncateName(name string, max int) string {
	if max <= 3 || len(name) <= max {
		return name
	}
	return name[:max-3] + "..."
}
