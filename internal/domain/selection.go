package domain

import (
	"fmt"
	"strings"
	"time"
)

// Degradation records which fallback, if any, produced a Selection.
type Degradation string

const (
	DegradedNone Degradation = ""
	// DegradedAnchor means the selection was not found inside its block
	// and the whole body text was used instead.
	DegradedAnchor Degradation = "anchor_fallback"
	// DegradedLiteral means sentence and contextual block were reduced to
	// the selected text itself.
	DegradedLiteral Degradation = "literal"
)

// Selection is the immutable record produced by a capture.
type Selection struct {
	ID              string      `json:"id"`
	SelectedText    string      `json:"selectedText"`
	Sentence        string      `json:"sentence"`
	ContextualBlock string      `json:"contextualBlock"`
	Locator         Locator     `json:"locator"`
	PageURL         string      `json:"pageUrl,omitempty"`
	PageTitle       string      `json:"pageTitle,omitempty"`
	Degraded        Degradation `json:"degraded,omitempty"`
	CapturedAt      time.Time   `json:"capturedAt"`
}

// Step is one level of a locator path: the element tag and its 1-based
// position among siblings with the same tag.
type Step struct {
	Tag   string `json:"tag"`
	Index int    `json:"index"`
}

// Locator describes where an anchor element lives without holding a
// reference to it. Path is relative to the element carrying ID, or to
// <body> when ID is empty. An empty locator designates <body>.
type Locator struct {
	ID   string `json:"id,omitempty"`
	Path []Step `json:"path,omitempty"`
}

// IsBody reports whether the locator designates the document body.
func (l Locator) IsBody() bool {
	return l.ID == "" && len(l.Path) == 0
}

// String renders the locator as an XPath-like expression.
func (l Locator) String() string {
	var sb strings.Builder
	if l.ID != "" {
		fmt.Fprintf(&sb, "//*[@id='%s']", l.ID)
	} else {
		sb.WriteString("/html/body")
	}
	for _, s := range l.Path {
		fmt.Fprintf(&sb, "/%s[%d]", s.Tag, s.Index)
	}
	return sb.String()
}
