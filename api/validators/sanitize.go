package validators

import "strings"

// SanitizeString trims whitespace and caps the value at maxLen runes.
// Truncation counts runes, not bytes; WhatsApp profile names and free-text
// bodies are frequently multibyte.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
