package extractor

import (
	"strings"

	"glossari/internal/domtext"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExpandContext widens sentence with the text of up to window sibling
// blocks on each side of anchor. Siblings without rendered text are skipped
// and do not count toward the window.
func ExpandContext(anchor *html.Node, sentence string, window int) string {
	sentence = domtext.Normalize(sentence)
	if window <= 0 || anchor == nil || anchor.DataAtom == atom.Body {
		return sentence
	}

	var before []string
	for s := dom.PreviousElementSibling(anchor); s != nil && len(before) < window; s = dom.PreviousElementSibling(s) {
		if text := domtext.Text(s); text != "" {
			before = append(before, text)
		}
	}
	var after []string
	for s := dom.NextElementSibling(anchor); s != nil && len(after) < window; s = dom.NextElementSibling(s) {
		if text := domtext.Text(s); text != "" {
			after = append(after, text)
		}
	}

	parts := make([]string, 0, len(before)+1+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		parts = append(parts, before[i])
	}
	parts = append(parts, sentence)
	parts = append(parts, after...)
	return domtext.Normalize(strings.Join(parts, " "))
}
