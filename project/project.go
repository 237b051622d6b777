// Package project turns loosely typed Content API rows into Project values
// and holds the rules shared by every view of a project: slugs, image
// validation, ownership and display fallbacks.
package project

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eringen/portfolio/richtext"
)

const (
	// UnknownDate is shown when a record carries no date.
	UnknownDate = "Unknown date"
	// DefaultAvatar is used when a record has no profile photo.
	DefaultAvatar = "/img/defaultProfile.png"
	// PlaceholderImage is what views show for a project without images.
	PlaceholderImage = "/img/activities1.jpg"

	subtitleSentences = 3
	descriptionLength = 500
)

var log = logrus.WithField("component", "project")

// Record is a project row as the Content API returns it. Field names are the
// upstream sheet columns: judul (title), penulis (author), konten (content
// HTML), gambar (images) and tanggal (date).
type Record map[string]any

// String returns the value at key as a string. Numbers and booleans are
// formatted; missing keys, nulls, arrays and objects yield "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Project is the normalized, request-scoped view of a record.
type Project struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Author      string   `json:"author"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Image       string   `json:"image,omitempty"`
	Images      []string `json:"images"`
	Avatar      string   `json:"avatar"`
	Content     string   `json:"content"`
}

// Transform builds a Project from raw. It never panics: if any step fails
// the fields built so far are kept, the rest stay at their defaults and the
// failure is logged. fallbackIndex stands in for a missing id.
func Transform(raw Record, fallbackIndex int) (p Project) {
	p = Project{
		ID:     strconv.Itoa(fallbackIndex),
		Date:   UnknownDate,
		Avatar: DefaultAvatar,
		Images: []string{},
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"index": fallbackIndex,
				"id":    p.ID,
				"panic": fmt.Sprint(r),
			}).Error("project record only partially transformed")
			if p.Slug == "" {
				p.Slug = fallbackSlug(p)
			}
		}
	}()

	if id := strings.TrimSpace(raw.String("id")); id != "" {
		p.ID = id
	}
	p.Title = strings.TrimSpace(raw.String("judul"))
	p.Author = strings.TrimSpace(raw.String("penulis"))
	if date := strings.TrimSpace(raw.String("tanggal")); date != "" {
		p.Date = date
	}
	if photo := strings.TrimSpace(raw.String("profilePhoto")); photo != "" {
		p.Avatar = photo
	}

	p.Slug = GenerateSlug(raw.String("slug"))
	if p.Slug == "" {
		p.Slug = GenerateSlug(p.Title)
	}
	if p.Slug == "" {
		p.Slug = fallbackSlug(p)
	}

	images := NormalizeImages(raw["gambar"])
	p.Images = images
	if len(images) > 0 {
		p.Image = images[0]
	}

	content := raw.String("konten")
	p.Content = richtext.Sanitize(content)
	text := richtext.ExtractPlainText(content)
	p.Subtitle = richtext.FirstSentences(text, subtitleSentences)
	p.Description = richtext.FirstParagraphs(text, descriptionLength)
	return p
}

// TransformAll transforms a listing. Indexes start at 1 so that fallback ids
// are never zero.
func TransformAll(raws []Record) []Project {
	out := make([]Project, 0, len(raws))
	for i, raw := range raws {
		out = append(out, Transform(raw, i+1))
	}
	return out
}

func fallbackSlug(p Project) string {
	if s := GenerateSlug("project " + p.ID); s != "" {
		return s
	}
	return "project"
}
