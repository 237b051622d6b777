// Package richtext turns user-authored rich-text HTML into sanitized markup
// for storage and plain text for previews, and models the admin editor's
// document so formatting commands can be applied server side.
package richtext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const ellipsis = "…"

// blockElements break text flow. The extractor separates their text with a
// space and the editor treats them as top-level blocks.
var blockElements = map[atom.Atom]bool{
	atom.Address:    true,
	atom.Article:    true,
	atom.Aside:      true,
	atom.Blockquote: true,
	atom.Dd:         true,
	atom.Div:        true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Figcaption: true,
	atom.Figure:     true,
	atom.Footer:     true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Header:     true,
	atom.Hr:         true,
	atom.Li:         true,
	atom.Main:       true,
	atom.Nav:        true,
	atom.Ol:         true,
	atom.P:          true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Table:      true,
	atom.Tbody:      true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Thead:      true,
	atom.Tr:         true,
	atom.Ul:         true,
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

// parseContainer parses s as body content and hangs the resulting nodes off
// a detached <div> so the fragment can be walked and rendered as one tree.
func parseContainer(s string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(s), newElement(atom.Body))
	if err != nil {
		return nil, err
	}
	root := newElement(atom.Div)
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// serialize renders the children of root, not root itself.
func serialize(root *html.Node) (string, error) {
	return goquery.NewDocumentFromNode(root).Html()
}
