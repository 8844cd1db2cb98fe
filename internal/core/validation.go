// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Regular expression for valid field names (letters, digits, underscore; no leading digit)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Field names the record envelope already uses.
var ReservedFieldNames = map[string]bool{
	"id":         true,
	"uuid":       true,
	"created_by": true,
	"created_at": true,
	"updated_at": true,
}

// IsValidIdentifier checks if a string is a valid identifier (e.g. a field name).
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// IsReservedFieldName reports whether name collides with a record envelope attribute.
func IsReservedFieldName(name string) bool {
	return ReservedFieldNames[strings.ToLower(name)]
}

// Slugify derives a URL slug from a display name: "Blog Posts" -> "blog-posts".
// Accents are folded, every run of non-alphanumerics becomes one hyphen.
func Slugify(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	pendingDash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue // combining accent
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// IsValidSlug checks an explicitly supplied slug.
func IsValidSlug(slug string) bool {
	return slug != "" && len(slug) <= 128 && Slugify(slug) == slug
}
