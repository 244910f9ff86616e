// Package strutil holds small string helpers shared by logging and CLI output.
package strutil

// Truncate shortens s to at most maxLen runes, appending "..." when it cuts.
// maxLen <= 0 yields "".
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
