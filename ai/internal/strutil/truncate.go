// Package strutil holds small string helpers shared by the ai packages.
package strutil

import "strings"

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
// Non-positive maxLen yields "".
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// FirstLine returns s up to the first newline.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
