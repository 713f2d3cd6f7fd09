package trial

import "strings"

// CheckSpelling compares case-insensitively. Whitespace is significant.
func CheckSpelling(candidate, prompt string) bool {
	return strings.ToLower(candidate) == strings.ToLower(prompt)
}
