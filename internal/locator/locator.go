// Package locator encodes an anchor element as a structural path that can
// be resolved again later against a fresh snapshot of the same page.
package locator

import (
	"fmt"

	"glossari/internal/domain"
	"glossari/internal/domtext"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Encode builds a locator for el. The walk goes up from el and stops at the
// first element whose id is unique in the document, or at <body>.
func Encode(el *html.Node) (domain.Locator, error) {
	if el == nil || el.Type != html.ElementNode {
		return domain.Locator{}, fmt.Errorf("encode locator: %w", domain.ErrAnchorNotFound)
	}

	ids := idCounts(domtext.Root(el))

	var steps []domain.Step
	for n := el; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.DataAtom == atom.Body {
			return domain.Locator{Path: reverse(steps)}, nil
		}
		if id := dom.ID(n); id != "" && ids[id] == 1 {
			return domain.Locator{ID: id, Path: reverse(steps)}, nil
		}
		steps = append(steps, domain.Step{Tag: n.Data, Index: sameTagIndex(n)})
	}

	return domain.Locator{}, fmt.Errorf("encode locator: element outside body: %w", domain.ErrAnchorNotFound)
}

// Resolve finds the element designated by loc in doc.
func Resolve(doc *html.Node, loc domain.Locator) (*html.Node, error) {
	var cur *html.Node
	if loc.ID != "" {
		matches := elementsWithID(doc, loc.ID)
		if len(matches) != 1 {
			return nil, fmt.Errorf("%w: %d elements with id %q", domain.ErrLocatorStale, len(matches), loc.ID)
		}
		cur = matches[0]
	} else {
		cur = domtext.Body(doc)
		if cur == nil {
			return nil, fmt.Errorf("%w: document has no body", domain.ErrLocatorStale)
		}
	}

	for _, step := range loc.Path {
		next := nthChild(cur, step.Tag, step.Index)
		if next == nil {
			return nil, fmt.Errorf("%w: no %s[%d] under <%s>", domain.ErrLocatorStale, step.Tag, step.Index, cur.Data)
		}
		cur = next
	}
	return cur, nil
}

// ResolveText returns the normalized text of the element designated by loc.
func ResolveText(doc *html.Node, loc domain.Locator) (string, error) {
	el, err := Resolve(doc, loc)
	if err != nil {
		return "", err
	}
	return domtext.Text(el), nil
}

// sameTagIndex is the 1-based position of n among its siblings with the same tag.
func sameTagIndex(n *html.Node) int {
	if n.Parent == nil {
		return 1
	}
	idx := 0
	for _, s := range dom.Children(n.Parent) {
		if s.Data == n.Data {
			idx++
		}
		if s == n {
			break
		}
	}
	return idx
}

func nthChild(parent *html.Node, tag string, index int) *html.Node {
	if index < 1 {
		return nil
	}
	pos := 0
	for _, c := range dom.Children(parent) {
		if c.Data != tag {
			continue
		}
		pos++
		if pos == index {
			return c
		}
	}
	return nil
}

func idCounts(doc *html.Node) map[string]int {
	counts := make(map[string]int)
	for _, el := range dom.GetElementsByTagName(doc, "*") {
		if id := dom.ID(el); id != "" {
			counts[id]++
		}
	}
	return counts
}

func elementsWithID(doc *html.Node, id string) []*html.Node {
	var out []*html.Node
	for _, el := range dom.GetElementsByTagName(doc, "*") {
		if dom.ID(el) == id {
			out = append(out, el)
		}
	}
	return out
}

func reverse(steps []domain.Step) []domain.Step {
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
