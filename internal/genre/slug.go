// Package genre derives genre slugs.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a display name to a URL-safe slug.
// "Science Fiction" -> "science-fiction".
// "Romance Épique" -> "romance-epique".
func Slugify(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// ResolveSlug returns the slug a genre is keyed by: the explicit slug
// trimmed and lowercased, or the slugified name when no slug is given.
func ResolveSlug(slug, name string) string {
	if s := strings.ToLower(strings.TrimSpace(slug)); s != "" {
		return s
	}
	return Slugify(name)
}
