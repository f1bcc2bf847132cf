package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes a recording or highlight title usable as a file
// name. Path separators, colons and asterisks become dashes; quotes, angle
// brackets, pipes, question marks and control runes are dropped. Surrounding
// whitespace is trimmed.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(mapped)
}

// SanitizeToken lowercases value into a token for job log names. Letters of
// any script, digits, hyphens and underscores survive; every other rune
// becomes an underscore. Empty results collapse to "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
