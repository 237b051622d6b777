package richtext

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"golang.org/x/net/html"
)

// TrackingPrefix marks editor bookkeeping attributes that must not be stored.
const TrackingPrefix = "data-"

var (
	reQuotedTracking   = regexp.MustCompile(`(?i)\s+data-[^\s=>]*\s*=\s*("[^"]*"|'[^']*')`)
	reUnquotedTracking = regexp.MustCompile(`(?i)\s+data-[^\s=>]*\s*=\s*[^\s"'>]+`)
)

// Sanitize removes tracking attributes from every element and reduces inline
// styles to their text-align declaration. Tags and text are left alone, so
// this is not a defence against script injection. Sanitize is idempotent.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	root, err := parseContainer(s)
	if err != nil {
		return sanitizeFallback(s)
	}
	scrub(root)
	out, err := serialize(root)
	if err != nil {
		return sanitizeFallback(s)
	}
	return out
}

func scrub(root *html.Node) {
	goquery.NewDocumentFromNode(root).Find("*").Each(func(_ int, el *goquery.Selection) {
		for _, n := range el.Nodes {
			scrubAttrs(n)
		}
	})
}

func scrubAttrs(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		switch {
		case strings.HasPrefix(key, TrackingPrefix):
			continue
		case key == "style":
			a.Val = alignmentOnly(a.Val)
			if a.Val == "" {
				continue
			}
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// alignmentOnly keeps the text-align declarations of a style value.
func alignmentOnly(style string) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		prop, _, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(prop), "text-align") {
			kept = append(kept, decl)
		}
	}
	return strings.Join(kept, "; ")
}

// sanitizeFallback only drops tracking attributes; styles pass through.
func sanitizeFallback(s string) string {
	s = reQuotedTracking.ReplaceAllString(s, "")
	return reUnquotedTracking.ReplaceAllString(s, "")
}

// HTML renders sanitized content as raw markup inside a templ template.
func HTML(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, Sanitize(content))
		return err
	})
}
