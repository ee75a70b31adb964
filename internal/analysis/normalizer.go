// internal/analysis/normalizer.go
package analysis

import "strings"

const (
	jsonFence    = "```json"
	genericFence = "```"
)

// Normalize strips markdown fence wrapping the model sometimes adds around
// structured output. Exact literal prefix/suffix slicing; the body is left
// untouched.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, jsonFence) {
		s = s[len(jsonFence):]
	} else if strings.HasPrefix(s, genericFence) {
		s = s[len(genericFence):]
	}

	if strings.HasSuffix(s, genericFence) {
		s = s[:len(s)-len(genericFence)]
	}

	return s
}
