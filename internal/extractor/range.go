package extractor

import (
	"glossari/internal/domtext"

	"golang.org/x/net/html"
)

// Range is a selection inside a parsed document, expressed like a DOM Range:
// text containers use byte offsets into their data, element containers use
// child indexes.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// Collapsed reports whether the range selects nothing.
func (r Range) Collapsed() bool {
	if r.StartContainer == nil || r.EndContainer == nil {
		return true
	}
	return r.StartContainer == r.EndContainer && r.StartOffset >= r.EndOffset
}

// Text returns the rendered text between the range boundaries.
func (r Range) Text() string {
	if r.Collapsed() {
		return ""
	}
	r = r.normalize()
	flat := domtext.Flatten(domtext.Root(r.StartContainer))
	start, ok := flat.Offset(r.StartContainer, r.StartOffset)
	if !ok {
		return ""
	}
	end, ok := flat.Offset(r.EndContainer, r.EndOffset)
	if !ok || end <= start {
		return ""
	}
	return flat.Raw[start:end]
}

// normalize moves element boundaries onto the nearest text node so that
// both containers are text nodes whenever the document allows it.
func (r Range) normalize() Range {
	r.StartContainer, r.StartOffset = boundary(r.StartContainer, r.StartOffset, false)
	r.EndContainer, r.EndOffset = boundary(r.EndContainer, r.EndOffset, true)
	return r
}

func boundary(n *html.Node, off int, end bool) (*html.Node, int) {
	if n == nil || n.Type == html.TextNode {
		return n, off
	}

	child := n.FirstChild
	for i := 0; i < off && child != nil; i++ {
		child = child.NextSibling
	}

	if end {
		// The boundary sits just before child: use the last text before it.
		var t *html.Node
		for c := n.FirstChild; c != child; c = c.NextSibling {
			if last := lastText(c); last != nil {
				t = last
			}
		}
		if t == nil {
			return n, off
		}
		return t, len(t.Data)
	}

	for c := child; c != nil; c = c.NextSibling {
		if first := firstText(c); first != nil {
			return first, 0
		}
	}
	return n, off
}

func firstText(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	if domtext.Skipped(n) {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func lastText(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	if domtext.Skipped(n) {
		return nil
	}
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if t := lastText(c); t != nil {
			return t
		}
	}
	return nil
}
