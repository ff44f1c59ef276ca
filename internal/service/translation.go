package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"glossari/internal/cache"
	"glossari/internal/domain"
	"glossari/internal/domtext"

	"go.uber.org/zap"
)

// Translator translates a word or phrase
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Explainer answers a free-form prompt with generated text
type Explainer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrNoDefinition means the translator returned the input unchanged
	ErrNoDefinition = errors.New("no distinct definition found")
	// ErrNoExplanation means the explainer returned nothing
	ErrNoExplanation = errors.New("no explanation found")
)

const explainPrompt = "Explain the following text concisely and clearly: %q"

// TranslationService translates and explains selected text, memoizing
// the latest answers
type TranslationService struct {
	translator   Translator
	explainer    Explainer
	translations *cache.Memo
	explanations *cache.Memo
	logger       *zap.Logger
}

// NewTranslationService creates a new translation service. Either
// collaborator may be nil.
func NewTranslationService(translator Translator, explainer Explainer, cacheSize int, logger *zap.Logger) (*TranslationService, error) {
	translations, err := cache.NewMemo(cacheSize)
	if err != nil {
		return nil, err
	}
	explanations, err := cache.NewMemo(cacheSize)
	if err != nil {
		return nil, err
	}
	return &TranslationService{
		translator:   translator,
		explainer:    explainer,
		translations: translations,
		explanations: explanations,
		logger:       logger,
	}, nil
}

// CanTranslate reports whether a translator is configured
func (s *TranslationService) CanTranslate() bool {
	return s.translator != nil
}

// CanExplain reports whether an explainer is configured
func (s *TranslationService) CanExplain() bool {
	return s.explainer != nil
}

// Translate returns the translation of text
func (s *TranslationService) Translate(ctx context.Context, text string) (string, error) {
	if s.translator == nil {
		return "", fmt.Errorf("translator: %w", domain.ErrServiceUnavailable)
	}
	text = domtext.Normalize(text)
	if text == "" {
		return "", domain.ErrEmptySelection
	}
	if v, ok := s.translations.Get(text); ok {
		return v, nil
	}

	translation, err := s.translator.Translate(ctx, text)
	if err == nil {
		translation = strings.TrimSpace(translation)
		if translation == "" || strings.EqualFold(translation, text) {
			err = fmt.Errorf("%w for %q", ErrNoDefinition, text)
		}
	}
	if err != nil {
		s.translations.Purge()
		s.logger.Warn("Translation failed", zap.String("text", text), zap.Error(err))
		return "", &domain.ExternalServiceError{Service: "translation", Err: err}
	}

	s.translations.Put(text, translation)
	return translation, nil
}

// Explain returns a generated explanation of text
func (s *TranslationService) Explain(ctx context.Context, text string) (string, error) {
	if s.explainer == nil {
		return "", fmt.Errorf("explainer: %w", domain.ErrServiceUnavailable)
	}
	text = domtext.Normalize(text)
	if text == "" {
		return "", domain.ErrEmptySelection
	}
	if v, ok := s.explanations.Get(text); ok {
		return v, nil
	}

	explanation, err := s.explainer.Generate(ctx, fmt.Sprintf(explainPrompt, text))
	if err == nil {
		explanation = strings.TrimSpace(explanation)
		if explanation == "" {
			err = fmt.Errorf("%w for %q", ErrNoExplanation, text)
		}
	}
	if err != nil {
		s.explanations.Purge()
		s.logger.Warn("Explanation failed", zap.String("text", text), zap.Error(err))
		return "", &domain.ExternalServiceError{Service: "explanation", Err: err}
	}

	s.explanations.Put(text, explanation)
	return explanation, nil
}
