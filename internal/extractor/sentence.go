package extractor

import (
	"strings"
	"unicode/utf8"
)

// isTerminator reports whether r ends a sentence. Full-width forms cover
// CJK text.
func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// FindSentence returns the sentence of normalized text that contains
// text[offset:offset+length]. The terminator closing the sentence is kept;
// without one the sentence runs to the end of text. A negative offset
// yields the whole text.
func FindSentence(text string, offset, length int) string {
	if offset < 0 || offset > len(text) {
		return strings.TrimSpace(text)
	}
	end := offset + length
	if end > len(text) {
		end = len(text)
	}

	start := 0
	for i := offset; i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if isTerminator(r) {
			start = i
			break
		}
		i -= size
	}

	// Scan from the last selected rune so that a selection ending on a
	// terminator closes its own sentence.
	from := offset
	if end > offset {
		_, size := utf8.DecodeLastRuneInString(text[:end])
		from = end - size
	}
	stop := len(text)
	for i := from; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isTerminator(r) {
			stop = i + size
			break
		}
		i += size
	}

	if s := strings.TrimSpace(text[start:stop]); s != "" {
		return s
	}
	return strings.TrimSpace(text)
}
