package richtext

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reTagLike    = regexp.MustCompile(`<[^<>]*>`)
	reTag        = regexp.MustCompile(`<[^>]*>`)
	reEncodedTag = regexp.MustCompile(`(?i)&lt;[^&]*?&gt;`)
	reDangling   = regexp.MustCompile(`<[^>]*$`)
	reSentence   = regexp.MustCompile(`[^.!?]+[.!?]+`)

	angleBrackets = strings.NewReplacer("<", " ", ">", " ")
)

// ExtractPlainText reduces an HTML fragment to whitespace-collapsed plain
// text. The result never contains '<', '>' or a decodable entity.
func ExtractPlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	root, err := parseContainer(s)
	if err != nil {
		return fallbackPlainText(s)
	}
	var b strings.Builder
	collectText(&b, root)
	return cleanText(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return
		case atom.Br:
			b.WriteByte(' ')
			return
		}
	}
	sep := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if sep {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if sep {
		b.WriteByte(' ')
	}
}

// fallbackPlainText is the regex path, used only when the parser fails.
func fallbackPlainText(s string) string {
	s = reTag.ReplaceAllString(s, " ")
	s = reEncodedTag.ReplaceAllString(s, " ")
	s = reDangling.ReplaceAllString(s, " ")
	return cleanText(s)
}

// cleanText strips tag-like text and decodes entities until neither changes
// anything. Every decode shortens the string, so the loop terminates.
func cleanText(s string) string {
	for {
		s = reTagLike.ReplaceAllString(s, " ")
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return collapseSpace(angleBrackets.Replace(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstSentences returns the first n sentences of text joined by single
// spaces, capped at 200 characters. Text without sentence punctuation is
// cut at 150 characters instead.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" || n <= 0 {
		return ""
	}
	matches := reSentence.FindAllString(text, -1)
	if len(matches) == 0 {
		return truncate(text, 150)
	}
	if len(matches) > n {
		matches = matches[:n]
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			parts = append(parts, m)
		}
	}
	return truncate(strings.Join(parts, " "), 200)
}

// FirstParagraphs accumulates whole sentences while the result stays within
// maxLen characters and marks any remainder with an ellipsis.
func FirstParagraphs(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if text == "" || maxLen <= 0 {
		return ""
	}
	locs := reSentence.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return truncate(text, maxLen)
	}

	var parts []string
	length, consumed := 0, 0
	for _, loc := range locs {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s == "" {
			consumed = loc[1]
			continue
		}
		l := utf8.RuneCountInString(s)
		if len(parts) > 0 {
			l++
		}
		if length+l > maxLen {
			break
		}
		parts = append(parts, s)
		length += l
		consumed = loc[1]
	}
	if len(parts) == 0 {
		return truncate(text, maxLen)
	}
	out := strings.Join(parts, " ")
	if strings.TrimSpace(text[consumed:]) != "" {
		out += ellipsis
	}
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + ellipsis
}
