package service

import (
	"errors"
	"fmt"
	"strings"

	"glossari/internal/domain"
	"glossari/internal/domtext"
	"glossari/internal/extractor"
	"glossari/internal/locator"
	"glossari/internal/page"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// CaptureInput describes a selection reported by a client
type CaptureInput struct {
	Snapshot      page.Snapshot
	Text          string
	Occurrence    int
	Within        *domain.Locator
	ContextWindow *int
}

// TrimResult is a validated user-trimmed sentence
type TrimResult struct {
	Sentence string
	// Warning is set when the page no longer matches the selection's locator
	Warning string
}

// ExtractionService turns reported selections into Selection records
type ExtractionService struct {
	extractor *extractor.Extractor
	logger    *zap.Logger
}

// NewExtractionService creates a new extraction service
func NewExtractionService(ex *extractor.Extractor, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{extractor: ex, logger: logger}
}

// Capture finds the reported selection in the snapshot and extracts its
// sentence, contextual block and locator
func (s *ExtractionService) Capture(in CaptureInput) (domain.Selection, error) {
	doc, err := in.Snapshot.Document()
	if err != nil {
		return domain.Selection{}, err
	}

	var within *html.Node
	if in.Within != nil {
		if within, err = locator.Resolve(doc, *in.Within); err != nil {
			return domain.Selection{}, err
		}
	}

	r, err := page.FindText(doc, in.Text, in.Occurrence, within)
	if err != nil {
		if errors.Is(err, page.ErrTextNotFound) {
			return domain.Selection{}, fmt.Errorf("%w: %v", domain.ErrEmptySelection, err)
		}
		return domain.Selection{}, err
	}

	window := s.extractor.Options().ContextWindow
	if in.ContextWindow != nil {
		window = *in.ContextWindow
	}

	sel, err := s.extractor.CaptureWindow(r, window)
	if err != nil {
		return domain.Selection{}, err
	}
	sel.PageURL = in.Snapshot.URL
	sel.PageTitle = in.Snapshot.Title

	if sel.Degraded != domain.DegradedNone {
		s.logger.Info("Selection captured with fallback",
			zap.String("selection_id", sel.ID),
			zap.String("degraded", string(sel.Degraded)),
		)
	}
	return sel, nil
}

// Resolve returns the text of the block loc designates in the page
func (s *ExtractionService) Resolve(src string, loc domain.Locator) (string, error) {
	doc, err := page.Parse(src)
	if err != nil {
		return "", err
	}
	return locator.ResolveText(doc, loc)
}

// Trim checks a sentence the user shortened by hand. It must still contain
// the selected text and must come from the selection's block. When the
// block can no longer be found, only the first check applies and a warning
// is returned.
func (s *ExtractionService) Trim(src string, sel domain.Selection, trimmed string) (TrimResult, error) {
	trimmed = domtext.Normalize(trimmed)
	if trimmed == "" {
		return TrimResult{}, fmt.Errorf("trimmed sentence is empty: %w", domain.ErrInvalidInput)
	}
	if !strings.Contains(trimmed, sel.SelectedText) {
		return TrimResult{}, fmt.Errorf("trimmed sentence must contain %q: %w", sel.SelectedText, domain.ErrInvalidInput)
	}

	// A literal selection carries no locator to check against
	if sel.Degraded == domain.DegradedLiteral {
		return TrimResult{
			Sentence: trimmed,
			Warning:  "the sentence could not be located on the page",
		}, nil
	}

	block, err := s.Resolve(src, sel.Locator)
	if errors.Is(err, domain.ErrLocatorStale) {
		s.logger.Warn("Locator is stale, trim checked against selection only",
			zap.String("selection_id", sel.ID),
			zap.String("locator", sel.Locator.String()),
		)
		return TrimResult{
			Sentence: trimmed,
			Warning:  "the page changed since the selection was made",
		}, nil
	}
	if err != nil {
		return TrimResult{}, err
	}

	if !strings.Contains(block, trimmed) {
		return TrimResult{}, fmt.Errorf("trimmed sentence is not part of the original text: %w", domain.ErrInvalidInput)
	}
	return TrimResult{Sentence: trimmed}, nil
}
