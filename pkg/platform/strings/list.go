// Package strings parses comma-separated list parameters.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, dropping empty elements.
// Elements are not trimmed; use SplitTrimmed for that. Order is preserved.
//
// Example:
//
//	SplitList("a,,b, c")
//	// Returns: []string{"a", "b", " c"}
func SplitList(raw string) []string {
	var out []string
	for s := range strings.SplitSeq(raw, ",") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitTrimmed is SplitList with whitespace trimmed from each element.
// Elements that are blank after trimming are dropped.
func SplitTrimmed(raw string) []string {
	var out []string
	for s := range strings.SplitSeq(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DedupeFold removes case-insensitive duplicates, keeping the first
// spelling seen.
//
// Example:
//
//	DedupeFold([]string{"AI", "rust", "ai"})
//	// Returns: []string{"AI", "rust"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, v)
	}
	return result
}
