package format

import "strings"

// OrDefault returns def when s is nil or blank.
func OrDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
