package richtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Command names a formatting primitive. The values match the command names
// the admin editor sends from the browser.
type Command string

const (
	Bold          Command = "bold"
	Italic        Command = "italic"
	Underline     Command = "underline"
	FormatBlock   Command = "formatBlock"
	UnorderedList Command = "insertUnorderedList"
	OrderedList   Command = "insertOrderedList"
	JustifyLeft   Command = "justifyLeft"
	JustifyCenter Command = "justifyCenter"
	JustifyRight  Command = "justifyRight"
	RemoveFormat  Command = "removeFormat"
)

// ErrUnsupportedCommand is returned for unknown commands or arguments.
var ErrUnsupportedCommand = errors.New("richtext: unsupported command")

var inlineTags = map[Command]atom.Atom{
	Bold:      atom.B,
	Italic:    atom.I,
	Underline: atom.U,
}

// inlineEquivalents lists the elements that already carry an inline command's
// formatting.
var inlineEquivalents = map[Command]map[atom.Atom]bool{
	Bold:      {atom.B: true, atom.Strong: true},
	Italic:    {atom.I: true, atom.Em: true},
	Underline: {atom.U: true},
}

var blockFormats = map[string]atom.Atom{
	"h1":         atom.H1,
	"h2":         atom.H2,
	"h3":         atom.H3,
	"h4":         atom.H4,
	"h5":         atom.H5,
	"h6":         atom.H6,
	"p":          atom.P,
	"div":        atom.Div,
	"blockquote": atom.Blockquote,
	"pre":        atom.Pre,
}

var alignments = map[Command]string{
	JustifyLeft:   "left",
	JustifyCenter: "center",
	JustifyRight:  "right",
}

// formattingElements are unwrapped by RemoveFormat.
var formattingElements = map[atom.Atom]bool{
	atom.B:      true,
	atom.Strong: true,
	atom.I:      true,
	atom.Em:     true,
	atom.U:      true,
	atom.S:      true,
	atom.Strike: true,
	atom.Span:   true,
	atom.Font:   true,
	atom.Sub:    true,
	atom.Sup:    true,
	atom.Mark:   true,
}

// Selection is a range of rune offsets into the document's text.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Selection) collapsed() bool { return s.Start == s.End }

// Caret locates the insertion point as an offset inside the Text-th text
// node in document order. AtRoot means the caret sits on the editable root
// itself because no text node was available.
type Caret struct {
	Text   int  `json:"text"`
	Offset int  `json:"offset"`
	AtRoot bool `json:"atRoot"`
}

// Surface is the editable document behind the admin editor. Its value is
// always sanitizer output. A Surface must not be shared between goroutines.
type Surface struct {
	root      *html.Node
	value     string
	sel       Selection
	caret     Caret
	observers []func(string)
}

// NewSurface returns a surface holding the sanitized form of initial.
func NewSurface(initial string) *Surface {
	s := &Surface{caret: Caret{AtRoot: true}}
	s.load(Sanitize(initial))
	return s
}

// Value returns the current sanitized HTML.
func (s *Surface) Value() string { return s.value }

// Caret returns the current caret.
func (s *Surface) Caret() Caret { return s.caret }

// SetCaret records where the caret was before the next edit.
func (s *Surface) SetCaret(c Caret) { s.caret = c }

// Selection returns the current selection.
func (s *Surface) Selection() Selection { return s.sel }

// OnChange registers fn to receive every new value.
func (s *Surface) OnChange(fn func(string)) {
	s.observers = append(s.observers, fn)
}

// Select sets the selection, clamped to the document's text.
func (s *Surface) Select(start, end int) {
	if start > end {
		start, end = end, start
	}
	n := textLen(s.root)
	s.sel = Selection{Start: clamp(start, 0, n), End: clamp(end, 0, n)}
}

// SetValue replaces the document when the sanitized v differs from the
// current value and reports whether it did. Observers are not notified.
func (s *Surface) SetValue(v string) bool {
	clean := Sanitize(v)
	if clean == s.value {
		return false
	}
	s.load(clean)
	s.caret = Caret{AtRoot: true}
	s.Select(s.sel.Start, s.sel.End)
	return true
}

// OnUserEdit takes the raw markup after a user mutation. If sanitizing
// changes it, the sanitized tree replaces the document and the caret is
// moved to its previous offset inside the first text node, or to the root
// when there is no text at all.
func (s *Surface) OnUserEdit(raw string) {
	clean := Sanitize(raw)
	s.load(clean)
	if clean != raw {
		s.restoreCaret()
	}
	s.Select(s.sel.Start, s.sel.End)
	s.notify()
}

// ApplyFormat runs cmd against the current selection and resynchronizes
// the document. arg is only used by FormatBlock.
func (s *Surface) ApplyFormat(cmd Command, arg string) error {
	switch cmd {
	case Bold, Italic, Underline:
		s.toggleInline(inlineTags[cmd], inlineEquivalents[cmd])
	case FormatBlock:
		a, ok := blockFormats[strings.ToLower(strings.Trim(arg, "<> "))]
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrUnsupportedCommand, cmd, arg)
		}
		s.formatBlock(a)
	case UnorderedList:
		s.toggleList(atom.Ul)
	case OrderedList:
		s.toggleList(atom.Ol)
	case JustifyLeft, JustifyCenter, JustifyRight:
		s.justify(alignments[cmd])
	case RemoveFormat:
		s.removeFormat()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd)
	}
	s.sync()
	return nil
}

func (s *Surface) load(clean string) {
	root, err := parseContainer(clean)
	if err != nil {
		root = newElement(atom.Div)
	}
	s.root = root
	s.value = clean
}

// sync re-sanitizes the mutated tree and notifies observers.
func (s *Surface) sync() {
	raw, err := serialize(s.root)
	if err != nil {
		raw = s.value
	}
	s.load(Sanitize(raw))
	s.Select(s.sel.Start, s.sel.End)
	s.notify()
}

func (s *Surface) notify() {
	for _, fn := range s.observers {
		fn(s.value)
	}
}

func (s *Surface) restoreCaret() {
	first := firstText(s.root)
	if first == nil {
		s.caret = Caret{AtRoot: true}
		return
	}
	s.caret = Caret{Offset: clamp(s.caret.Offset, 0, utf8.RuneCountInString(first.Data))}
}

// toggleInline wraps the selected text in a. When every selected text node
// is already inside one of the same elements, the formatting is removed
// from the selection instead.
func (s *Surface) toggleInline(a atom.Atom, same map[atom.Atom]bool) {
	if s.sel.collapsed() {
		return
	}
	nodes := s.splitSelection()
	formatted := len(nodes) > 0
	for _, n := range nodes {
		if len(ancestorsIn(n, s.root, same)) == 0 {
			formatted = false
			break
		}
	}
	for _, n := range nodes {
		if formatted {
			stripAncestors(n, ancestorsIn(n, s.root, same))
			continue
		}
		if len(ancestorsIn(n, s.root, same)) == 0 {
			wrap(n, newElement(a))
		}
	}
}

func (s *Surface) formatBlock(a atom.Atom) {
	for _, b := range s.selectedBlocks() {
		if b.DataAtom == atom.Ul || b.DataAtom == atom.Ol {
			for li := b.FirstChild; li != nil; li = li.NextSibling {
				if li.DataAtom == atom.Li {
					wrapChildren(li, a)
				}
			}
			continue
		}
		retag(b, a)
	}
}

func (s *Surface) toggleList(a atom.Atom) {
	blocks := s.selectedBlocks()
	if len(blocks) == 0 {
		return
	}
	if len(blocks) == 1 && blocks[0].DataAtom == a {
		unwrapList(blocks[0])
		return
	}
	list := newElement(a)
	s.root.InsertBefore(list, blocks[0])
	for _, b := range blocks {
		s.root.RemoveChild(b)
		if b.DataAtom == atom.Ul || b.DataAtom == atom.Ol {
			for li := b.FirstChild; li != nil; {
				next := li.NextSibling
				b.RemoveChild(li)
				if li.DataAtom == atom.Li {
					list.AppendChild(li)
				}
				li = next
			}
			continue
		}
		li := newElement(atom.Li)
		li.Attr = b.Attr
		moveChildren(b, li)
		list.AppendChild(li)
	}
}

func (s *Surface) justify(align string) {
	for _, b := range s.selectedBlocks() {
		if b.DataAtom == atom.Ul || b.DataAtom == atom.Ol {
			for li := b.FirstChild; li != nil; li = li.NextSibling {
				if li.DataAtom == atom.Li {
					setAlign(li, align)
				}
			}
			continue
		}
		setAlign(b, align)
	}
}

func (s *Surface) removeFormat() {
	if s.sel.collapsed() {
		return
	}
	for _, n := range s.splitSelection() {
		stripAncestors(n, ancestorsIn(n, s.root, formattingElements))
	}
}

// splitSelection splits text nodes at the selection edges and returns the
// text nodes lying entirely inside the selection.
func (s *Surface) splitSelection() []*html.Node {
	var inside []*html.Node
	for _, sp := range textSpans(s.root) {
		if sp.start == sp.end || sp.end <= s.sel.Start || sp.start >= s.sel.End {
			continue
		}
		n := sp.node
		if s.sel.Start > sp.start {
			n = splitText(n, s.sel.Start-sp.start)
			sp.start = s.sel.Start
		}
		if s.sel.End < sp.end {
			splitText(n, s.sel.End-sp.start)
		}
		inside = append(inside, n)
	}
	return inside
}

// selectedBlocks wraps loose top-level inline content into paragraphs and
// returns the top-level elements the selection touches. A collapsed
// selection touches at most one block.
func (s *Surface) selectedBlocks() []*html.Node {
	s.wrapLooseInline()
	var out []*html.Node
	pos := 0
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		start, end := pos, pos+textLen(c)
		pos = end
		if c.Type != html.ElementNode {
			continue
		}
		if s.sel.collapsed() {
			if s.sel.Start >= start && s.sel.Start <= end {
				return []*html.Node{c}
			}
			continue
		}
		if start < s.sel.End && end > s.sel.Start {
			out = append(out, c)
		}
	}
	return out
}

func (s *Surface) wrapLooseInline() {
	var run []*html.Node
	flush := func() {
		if len(run) == 0 || blankRun(run) {
			run = nil
			return
		}
		p := newElement(atom.P)
		s.root.InsertBefore(p, run[0])
		for _, n := range run {
			s.root.RemoveChild(n)
			p.AppendChild(n)
		}
		run = nil
	}
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockElements[c.DataAtom] {
			flush()
			continue
		}
		run = append(run, c)
	}
	flush()
}

func blankRun(run []*html.Node) bool {
	for _, n := range run {
		if n.Type != html.TextNode || strings.TrimSpace(n.Data) != "" {
			return false
		}
	}
	return true
}

type textSpan struct {
	node       *html.Node
	start, end int
}

func textSpans(root *html.Node) []textSpan {
	var spans []textSpan
	pos := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			l := utf8.RuneCountInString(n.Data)
			spans = append(spans, textSpan{node: n, start: pos, end: pos + l})
			pos += l
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return spans
}

func textLen(n *html.Node) int {
	if n.Type == html.TextNode {
		return utf8.RuneCountInString(n.Data)
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textLen(c)
	}
	return total
}

func firstText(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

// splitText cuts n at rune offset i and returns the node holding the tail.
func splitText(n *html.Node, i int) *html.Node {
	r := []rune(n.Data)
	tail := &html.Node{Type: html.TextNode, Data: string(r[i:])}
	n.Data = string(r[:i])
	n.Parent.InsertBefore(tail, n.NextSibling)
	return tail
}

// ancestorsIn returns the ancestors of n below root whose element is in set,
// innermost first.
func ancestorsIn(n, root *html.Node, set map[atom.Atom]bool) []*html.Node {
	var out []*html.Node
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if p.Type == html.ElementNode && set[p.DataAtom] {
			out = append(out, p)
		}
	}
	return out
}

// stripAncestors removes the elements in ancestors (innermost first) from
// around n only. Content they hold outside n keeps its formatting.
func stripAncestors(n *html.Node, ancestors []*html.Node) {
	if len(ancestors) == 0 {
		return
	}
	isolate(n, ancestors[len(ancestors)-1])
	for _, el := range ancestors {
		unwrap(el)
	}
}

// isolate splits every element from n's parent up to and including top so
// that top holds nothing but n. Siblings on either side move into shallow
// copies of the element they were in.
func isolate(n, top *html.Node) {
	for child := n; child != top; child = child.Parent {
		p := child.Parent
		if child.PrevSibling != nil {
			before := shallowCopy(p)
			for c := p.FirstChild; c != child; {
				next := c.NextSibling
				p.RemoveChild(c)
				before.AppendChild(c)
				c = next
			}
			p.Parent.InsertBefore(before, p)
		}
		if child.NextSibling != nil {
			after := shallowCopy(p)
			for c := child.NextSibling; c != nil; {
				next := c.NextSibling
				p.RemoveChild(c)
				after.AppendChild(c)
				c = next
			}
			p.Parent.InsertBefore(after, p.NextSibling)
		}
	}
}

func shallowCopy(n *html.Node) *html.Node {
	return &html.Node{
		Type:      n.Type,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
}

func wrap(n, el *html.Node) {
	n.Parent.InsertBefore(el, n)
	n.Parent.RemoveChild(n)
	el.AppendChild(n)
}

func unwrap(el *html.Node) {
	parent := el.Parent
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		parent.InsertBefore(c, el)
		c = next
	}
	parent.RemoveChild(el)
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

func retag(n *html.Node, a atom.Atom) {
	n.Data = a.String()
	n.DataAtom = a
}

// wrapChildren gives li a single block child of type a.
func wrapChildren(li *html.Node, a atom.Atom) {
	if only := li.FirstChild; only != nil && only.NextSibling == nil &&
		only.Type == html.ElementNode && blockElements[only.DataAtom] {
		retag(only, a)
		return
	}
	el := newElement(a)
	moveChildren(li, el)
	li.AppendChild(el)
}

func unwrapList(list *html.Node) {
	parent := list.Parent
	for li := list.FirstChild; li != nil; {
		next := li.NextSibling
		list.RemoveChild(li)
		if li.DataAtom == atom.Li {
			p := newElement(atom.P)
			p.Attr = li.Attr
			moveChildren(li, p)
			parent.InsertBefore(p, list)
		}
		li = next
	}
	parent.RemoveChild(list)
}

// setAlign replaces n's inline style with a single text-align declaration.
func setAlign(n *html.Node, align string) {
	decl := "text-align: " + align
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, "style") {
			n.Attr[i].Val = decl
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: decl})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
