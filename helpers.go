package portfolio

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/portfolio/project"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// ProjectURL is the canonical URL of a project page.
func ProjectURL(base string, p project.Project) string {
	return BuildURL(base, "portfolio", p.Slug)
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// ProjectPageMeta builds the head metadata for a project page.
func ProjectPageMeta(p project.Project, cfg SiteConfig) PageMeta {
	return PageMeta{
		Title:       p.Title + " | " + cfg.Name,
		Description: p.Subtitle,
		URL:         ProjectURL(cfg.URL, p),
		OGType:      "article",
		Image:       p.Image,
	}
}

var projectDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"01/02/2006",
}

// parseProjectDate reads the free-form date of a record. The second result
// is false for UnknownDate and anything unrecognized.
func parseProjectDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == project.UnknownDate {
		return time.Time{}, false
	}
	for _, layout := range projectDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ProjectJsonLD returns a JSON-LD string for an Article schema.
func ProjectJsonLD(p project.Project, cfg SiteConfig) string {
	pageURL := ProjectURL(cfg.URL, p)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "Article",
		"headline":    p.Title,
		"description": p.Subtitle,
		"url":         pageURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   pageURL,
		},
	}
	if t, ok := parseProjectDate(p.Date); ok {
		data["datePublished"] = t.Format("2006-01-02")
	}
	if p.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  p.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(p.Images) > 0 {
		data["image"] = p.Images
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
