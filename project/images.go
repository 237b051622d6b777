package project

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// The upstream sheet sometimes writes the row date into the image column.
// These patterns catch the shapes seen so far; they are not exhaustive.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s`),
	regexp.MustCompile(`(?i)\sGMT([+-]\d{2}:?\d{2})?(\s*\([^)]*\))?\s*$`),
	regexp.MustCompile(`(?i)^\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`),
	regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`(?i)waktu indonesia`),
}

// LooksLikeDate reports whether s reads like a formatted date.
func LooksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// NormalizeImages turns the raw gambar value into a list of unique, valid
// image URLs. It accepts a list, a JSON-encoded list, a JSON string or a
// bare URL; anything else yields an empty list.
func NormalizeImages(v any) []string {
	switch t := v.(type) {
	case []any:
		return validImages(t)
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return validImages(items)
	case string:
		return imagesFromString(t)
	default:
		return []string{}
	}
}

func imagesFromString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	if LooksLikeDate(s) {
		log.WithField("value", s).Debug("dropping date-like image field")
		return []string{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return validImages([]any{s})
	}
	switch t := parsed.(type) {
	case []any:
		return validImages(t)
	case string:
		return validImages([]any{t})
	default:
		return []string{}
	}
}

func validImages(items []any) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		u, ok := validImageURL(s)
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// validImageURL accepts absolute http(s) URLs with a host and root-relative
// paths. Protocol-relative and bare relative values are rejected.
func validImageURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if LooksLikeDate(s) {
		log.WithField("value", s).Debug("dropping date-like image entry")
		return "", false
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			log.WithFields(logrus.Fields{"value": s, "error": err}).Debug("dropping invalid image url")
			return "", false
		}
		return s, true
	case strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
		return s, true
	default:
		return "", false
	}
}
