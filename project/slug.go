package project

import (
	"regexp"
	"strings"
)

var (
	reSpaces  = regexp.MustCompile(`\s+`)
	reNonSlug = regexp.MustCompile(`[^a-z0-9-]+`)
	reHyphens = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug lowercases s, turns whitespace into hyphens, drops everything
// that is not an ASCII letter, digit or hyphen and collapses the hyphens.
func GenerateSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reSpaces.ReplaceAllString(s, "-")
	s = reNonSlug.ReplaceAllString(s, "")
	s = reHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
