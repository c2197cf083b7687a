package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes a database identifier usable as a file or object
// name. Path separators and characters rejected by common filesystems
// become dashes, control characters are dropped, and surrounding
// whitespace is trimmed.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '-'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	return strings.TrimSpace(mapped)
}
