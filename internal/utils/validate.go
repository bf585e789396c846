package utils

import (
	"regexp"
	"strings"
)

// organizationNamePattern accepts ASCII letters, digits, underscore and
// Hangul syllables (U+AC00–U+D7A3). Spaces, hyphens and other punctuation
// are rejected.
var organizationNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\x{AC00}-\x{D7A3}]+$`)

// ValidOrganizationName reports whether name is a well-formed organization
// name. The value is checked as given; callers must not trim it first or
// surrounding whitespace would be silently accepted.
func ValidOrganizationName(name string) bool {
	return organizationNamePattern.MatchString(name)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LooksLikeEmail is a cheap shape check; the auth provider is the real judge.
func LooksLikeEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
