package page

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"glossari/internal/domain"
	"glossari/internal/domtext"
	"glossari/internal/extractor"

	"golang.org/x/net/html"
)

// ErrTextNotFound means the selected text does not occur in the page.
var ErrTextNotFound = errors.New("selected text not found in page")

// FindText returns the Range covering the occurrence-th (0-based) match of
// text inside within, or inside the document body when within is nil.
// Matching ignores differences in whitespace.
func FindText(doc *html.Node, text string, occurrence int, within *html.Node) (extractor.Range, error) {
	needle := domtext.Normalize(text)
	if needle == "" {
		return extractor.Range{}, domain.ErrEmptySelection
	}
	if occurrence < 0 {
		occurrence = 0
	}

	root := within
	if root == nil {
		root = domtext.Body(doc)
	}
	if root == nil {
		return extractor.Range{}, fmt.Errorf("%w: document has no body", ErrTextNotFound)
	}

	flat := domtext.Flatten(root)
	haystack, index := flat.Normalized()

	at := -1
	for from, n := 0, 0; from <= len(haystack); n++ {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			break
		}
		if n == occurrence {
			at = from + i
			break
		}
		_, size := utf8.DecodeRuneInString(haystack[from+i:])
		from += i + size
	}
	if at < 0 {
		return extractor.Range{}, fmt.Errorf("%w: %q (occurrence %d)", ErrTextNotFound, needle, occurrence)
	}

	last := at + len(needle) - 1
	startNode, startOff, ok := flat.Locate(index[at], false)
	if !ok {
		return extractor.Range{}, fmt.Errorf("%w: %q", ErrTextNotFound, needle)
	}
	endNode, endOff, ok := flat.Locate(index[last]+1, true)
	if !ok {
		return extractor.Range{}, fmt.Errorf("%w: %q", ErrTextNotFound, needle)
	}

	return extractor.Range{
		StartContainer: startNode,
		StartOffset:    startOff,
		EndContainer:   endNode,
		EndOffset:      endOff,
	}, nil
}
