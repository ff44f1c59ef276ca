// Package domtext flattens parsed HTML into text while remembering which
// text node every byte came from, so offsets inside the DOM and offsets
// inside normalized text can be translated into each other.
package domtext

import (
	"sort"
	"strings"
	"unicode"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Subtrees that never render text.
var skipTags = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Rt:       true,
	atom.Rp:       true,
}

// Elements that start a new line when rendered.
var breakTags = map[atom.Atom]bool{
	atom.Html: true, atom.Body: true, atom.Br: true, atom.Hr: true,
	atom.P: true, atom.Div: true, atom.Pre: true, atom.Blockquote: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Tr: true, atom.Td: true, atom.Th: true, atom.Caption: true,
	atom.Article: true, atom.Section: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Main: true, atom.Aside: true, atom.Figure: true, atom.Figcaption: true,
	atom.Form: true, atom.Fieldset: true, atom.Address: true, atom.Details: true, atom.Summary: true,
}

type span struct {
	node  *html.Node
	start int
}

// Flat is the raw text of a subtree plus the position of each text node in it.
type Flat struct {
	Raw   string
	spans []span
}

// Skipped reports whether n is an element whose text is never rendered.
func Skipped(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return skipTags[n.DataAtom] || dom.HasAttribute(n, "hidden")
}

// Flatten concatenates the rendered text nodes under root in document order.
// Block elements and <br> are surrounded by newlines.
func Flatten(root *html.Node) Flat {
	var sb strings.Builder
	var spans []span

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			spans = append(spans, span{node: n, start: sb.Len()})
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if Skipped(n) {
				return
			}
			brk := breakTags[n.DataAtom]
			if brk {
				sb.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if brk {
				sb.WriteByte('\n')
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return Flat{Raw: sb.String(), spans: spans}
}

// Offset returns the raw offset of position off inside text node n.
func (f Flat) Offset(n *html.Node, off int) (int, bool) {
	for _, s := range f.spans {
		if s.node != n {
			continue
		}
		if off < 0 {
			off = 0
		}
		if off > len(n.Data) {
			off = len(n.Data)
		}
		return s.start + off, true
	}
	return 0, false
}

// Locate maps a raw offset back to a text node position. When end is true
// an offset on a node boundary resolves to the end of the preceding node.
func (f Flat) Locate(raw int, end bool) (*html.Node, int, bool) {
	i := sort.Search(len(f.spans), func(i int) bool {
		s := f.spans[i]
		if end {
			return s.start+len(s.node.Data) >= raw
		}
		return s.start+len(s.node.Data) > raw
	})
	if i == len(f.spans) {
		return nil, 0, false
	}
	s := f.spans[i]
	if raw < s.start {
		return nil, 0, false
	}
	return s.node, raw - s.start, true
}

// Normalized returns Collapse(f.Raw) together with the raw offset of each
// of its bytes.
func (f Flat) Normalized() (string, []int) {
	var sb strings.Builder
	sb.Grow(len(f.Raw))
	index := make([]int, 0, len(f.Raw))
	space := false
	for i, r := range f.Raw {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
				index = append(index, i)
				space = true
			}
			continue
		}
		space = false
		n := sb.Len()
		sb.WriteRune(r)
		for j := 0; j < sb.Len()-n; j++ {
			index = append(index, i+j)
		}
	}
	return sb.String(), index
}

// Collapse replaces every run of whitespace, newlines included, with one space.
func Collapse(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// Normalize collapses whitespace and trims the result.
func Normalize(s string) string {
	return strings.TrimSpace(Collapse(s))
}

// NormalizedOffset converts an offset into raw to the matching offset in
// Normalize(raw).
func NormalizedOffset(raw string, off int) int {
	if off < 0 {
		return -1
	}
	if off > len(raw) {
		off = len(raw)
	}
	lead := 0
	if strings.HasPrefix(Collapse(raw), " ") {
		lead = 1
	}
	n := len(Collapse(raw[:off])) - lead
	if n < 0 {
		return 0
	}
	if limit := len(Normalize(raw)); n > limit {
		return limit
	}
	return n
}

// Text returns the normalized rendered text of n.
func Text(n *html.Node) string {
	return Normalize(Flatten(n).Raw)
}

// Body returns the <body> element of the document containing n.
func Body(n *html.Node) *html.Node {
	if bodies := dom.GetElementsByTagName(Root(n), "body"); len(bodies) > 0 {
		return bodies[0]
	}
	return nil
}

// Root returns the topmost ancestor of n.
func Root(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
