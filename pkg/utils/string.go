package utils

import "unicode/utf8"

const ellipsis = "..."

// Truncate caps s at maxLen runes, ending in "..." when it had to cut.
// The ellipsis counts toward maxLen.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	r := []rune(s)
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-len(ellipsis)]) + ellipsis
}
