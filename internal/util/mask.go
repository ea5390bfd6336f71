package util

import "strings"

// MaskEmail hides the local part of an address except for its first two
// characters, e.g. "john.doe@example.com" -> "jo***@example.com".
// Addresses too short to mask are returned unchanged.
func MaskEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 2 {
		return s
	}
	return s[:2] + "***" + s[at:]
}
