// Package util provides small string helpers shared across the codebase.
package util

// TruncateString truncates a string to maxLen runes, adding "..." if
// truncated. Counting runes rather than bytes keeps multi-byte output
// from being cut mid-character.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
