package textutil

import (
	"strings"
	"unicode/utf8"
)

// RuneLen returns the number of code points in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes returns at most limit code points of s. A non-positive limit
// returns s unchanged.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// Excerpt collapses whitespace and truncates s to limit code points, appending
// an ellipsis when text was dropped.
func Excerpt(s string, limit int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	if limit == 1 {
		return "…"
	}
	return TruncateRunes(collapsed, limit-1) + "…"
}
