// Package page holds HTML snapshots of the pages a user reads and turns a
// reported text selection into a Range inside a parsed snapshot.
package page

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-shiori/dom"
	xhtml "golang.org/x/net/html"
)

// Snapshot is the HTML of a page at capture time.
type Snapshot struct {
	URL      string
	Title    string
	SiteName string
	HTML     string
}

// Parse parses an HTML document, detecting its charset.
func Parse(src string) (*xhtml.Node, error) {
	doc, err := dom.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// Document parses the snapshot.
func (s Snapshot) Document() (*xhtml.Node, error) {
	return Parse(s.HTML)
}

// FromText wraps a pasted passage into a snapshot with one <p> per line.
func FromText(text string) Snapshot {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>")
	}
	sb.WriteString("</body></html>")
	return Snapshot{HTML: sb.String()}
}
