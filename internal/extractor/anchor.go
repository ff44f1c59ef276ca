package extractor

import (
	"fmt"

	"glossari/internal/domain"
	"glossari/internal/domtext"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block-level containers that can anchor a selection.
var anchorTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Li:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Blockquote: true,
	atom.Div:        true,
	atom.Article:    true,
	atom.Section:    true,
}

// ResolveAnchor returns the smallest block container enclosing the start of r,
// or the document body when no ancestor qualifies.
func ResolveAnchor(r Range) (*html.Node, error) {
	if r.Collapsed() {
		return nil, domain.ErrEmptySelection
	}
	for n := r.StartContainer; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if n.DataAtom == atom.Body || anchorTags[n.DataAtom] {
			return n, nil
		}
	}
	if body := domtext.Body(r.StartContainer); body != nil {
		return body, nil
	}
	return nil, fmt.Errorf("resolve anchor: %w", domain.ErrAnchorNotFound)
}
