package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CleanLabel trims a city or country label and collapses inner runs of whitespace.
// Case is preserved: preference scope matching is exact.
func CleanLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanLabelPtr applies CleanLabel through a pointer, keeping nil as nil.
func CleanLabelPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := CleanLabel(*s)
	return &v
}
