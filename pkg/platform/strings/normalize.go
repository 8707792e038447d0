// Package strings provides string-slice normalization helpers.
package strings

import "strings"

// NormalizeEmails lowercases and trims each element and drops empties and
// duplicates, preserving first-seen order. Role claims and request payloads
// carry emails typed by humans; every comparison in the core assumes the
// normalized form.
func NormalizeEmails(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
