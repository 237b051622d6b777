package portfolio

import (
	"encoding/xml"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portfolio/project"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Author      string        `xml:"author,omitempty"`
	PubDate     string        `xml:"pubDate,omitempty"`
	GUID        string        `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

func enclosureFor(image string) *rssEnclosure {
	if image == "" {
		return nil
	}
	typ := mime.TypeByExtension(path.Ext(image))
	if typ == "" {
		typ = defaultImageType
	}
	return &rssEnclosure{URL: image, Length: "0", Type: typ}
}

func (a *App) renderRSS(c echo.Context, projects []project.Project) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(projects))
	for _, p := range projects {
		pubDate := ""
		if t, ok := parseProjectDate(p.Date); ok {
			pubDate = t.Format(time.RFC1123Z)
		}
		pageURL := ProjectURL(base, p)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        pageURL,
			Description: p.Subtitle,
			Author:      p.Author,
			PubDate:     pubDate,
			GUID:        pageURL,
			Enclosure:   enclosureFor(p.Image),
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
