// Package extractor turns a selection inside an HTML snapshot into the
// sentence that contains it, a wider contextual block and a locator that
// can find the same block again later.
package extractor

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"glossari/internal/domain"
	"glossari/internal/domtext"
	"glossari/internal/locator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	DefaultContextWindow      = 1
	DefaultMaxSelectionLength = 1000
)

// Options configures capture.
type Options struct {
	// ContextWindow is the number of sibling blocks added on each side.
	ContextWindow int
	// MaxSelectionLength is the longest selection, in runes, still treated
	// as a word or phrase.
	MaxSelectionLength int
}

// DefaultOptions returns the default capture options.
func DefaultOptions() Options {
	return Options{
		ContextWindow:      DefaultContextWindow,
		MaxSelectionLength: DefaultMaxSelectionLength,
	}
}

// Extractor builds Selection records. It holds no reference to any document
// between calls.
type Extractor struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New creates an extractor.
func New(opts Options, logger *zap.Logger) *Extractor {
	if opts.ContextWindow < 0 {
		opts.ContextWindow = 0
	}
	if opts.MaxSelectionLength <= 0 {
		opts.MaxSelectionLength = DefaultMaxSelectionLength
	}
	return &Extractor{
		opts:   opts,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Options returns the options the extractor was built with.
func (e *Extractor) Options() Options {
	return e.opts
}

// Capture converts r into a Selection using the configured context window.
func (e *Extractor) Capture(r Range) (domain.Selection, error) {
	return e.CaptureWindow(r, e.opts.ContextWindow)
}

// CaptureWindow converts r into a Selection widened by window sibling blocks.
func (e *Extractor) CaptureWindow(r Range, window int) (domain.Selection, error) {
	if r.Collapsed() {
		return domain.Selection{}, domain.ErrEmptySelection
	}
	r = r.normalize()

	selected := domtext.Normalize(r.Text())
	if selected == "" {
		return domain.Selection{}, domain.ErrEmptySelection
	}
	if n := utf8.RuneCountInString(selected); n > e.opts.MaxSelectionLength {
		return domain.Selection{}, fmt.Errorf("%d characters: %w", n, domain.ErrEmptySelection)
	}
	if window < 0 {
		window = 0
	}

	sel := domain.Selection{
		ID:           e.newID(),
		SelectedText: selected,
		CapturedAt:   e.now(),
	}

	anchor, err := ResolveAnchor(r)
	if err != nil {
		e.logger.Debug("No anchor for selection, using literal text", zap.Error(err))
		return literal(sel), nil
	}

	sentence, ok := sentenceIn(anchor, r, selected)
	if !ok {
		body := domtext.Body(anchor)
		if body == nil || body == anchor {
			return literal(sel), nil
		}
		e.logger.Debug("Selection not inside its block, falling back to body",
			zap.String("anchor", anchor.Data),
		)
		anchor = body
		sel.Degraded = domain.DegradedAnchor
		if sentence, ok = sentenceIn(anchor, r, selected); !ok {
			return literal(sel), nil
		}
	}

	block := ExpandContext(anchor, sentence, window)
	if !strings.Contains(sentence, selected) || !strings.Contains(block, sentence) {
		return literal(sel), nil
	}

	loc, err := locator.Encode(anchor)
	if err != nil {
		e.logger.Debug("Failed to encode locator", zap.Error(err))
		return literal(sel), nil
	}

	sel.Sentence = sentence
	sel.ContextualBlock = block
	sel.Locator = loc
	return sel, nil
}

// sentenceIn finds the sentence of block that contains the selection.
// It reports false when the block text does not contain the selected text.
func sentenceIn(block *html.Node, r Range, selected string) (string, bool) {
	flat := domtext.Flatten(block)
	text := domtext.Normalize(flat.Raw)
	if !strings.Contains(text, selected) {
		return "", false
	}

	raw, ok := flat.Offset(r.StartContainer, r.StartOffset)
	if !ok {
		// Offset unknown: the whole block stands in for the sentence.
		return text, true
	}
	idx := nearestIndex(text, selected, domtext.NormalizedOffset(flat.Raw, raw))
	return FindSentence(text, idx, len(selected)), true
}

// nearestIndex returns the occurrence of sub in text closest to hint.
func nearestIndex(text, sub string, hint int) int {
	if hint >= 0 && hint <= len(text) && strings.HasPrefix(text[hint:], sub) {
		return hint
	}
	best := -1
	for from := 0; from <= len(text); {
		i := strings.Index(text[from:], sub)
		if i < 0 {
			break
		}
		i += from
		if best < 0 || abs(i-hint) < abs(best-hint) {
			best = i
		}
		from = i + 1
	}
	return best
}

func literal(sel domain.Selection) domain.Selection {
	sel.Sentence = sel.SelectedText
	sel.ContextualBlock = sel.SelectedText
	sel.Degraded = domain.DegradedLiteral
	return sel
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
