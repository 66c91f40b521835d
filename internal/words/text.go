package words

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fillers are dropped when a name is split into merge fragments.
var fillers = map[string]bool{
	"of":  true,
	"de":  true,
	"da":  true,
	"the": true,
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// SplitName breaks a name on whitespace and hyphens.
func SplitName(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
}

// IsFiller reports whether w is a filler word, ignoring case.
func IsFiller(w string) bool {
	return fillers[strings.ToLower(w)]
}

// StripFiller returns parts without filler words.
func StripFiller(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if !IsFiller(p) {
			out = append(out, p)
		}
	}
	return out
}
