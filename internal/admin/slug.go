package admin

import (
	"regexp"
	"strings"
)

const maxSlugLen = 30

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s]`)
	slugSpaces = regexp.MustCompile(`\s+`)
)

// Slug derives an id from a display name: lowercase, alphanumerics only,
// whitespace runs become underscores, at most 30 characters.
func Slug(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "")
	s = slugSpaces.ReplaceAllString(s, "_")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}
