package service

import (
	"fmt"
	"strings"
	"time"

	"glossari/internal/domain"
	"glossari/internal/repository"

	"go.uber.org/zap"
)

// DefaultDeck receives cards when no deck is configured
const DefaultDeck = "Languages::French::n+1"

// CardSettings holds the deck and tag defaults for new cards
type CardSettings struct {
	SentenceDeck string
	VocabDeck    string
	LanguageTag  string
}

// CardService handles flashcard business logic
type CardService struct {
	deckRepo repository.DeckRepository
	cardRepo repository.CardRepository
	settings CardSettings
	logger   *zap.Logger
}

// NewCardService creates a new card service
func NewCardService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, settings CardSettings, logger *zap.Logger) *CardService {
	if settings.SentenceDeck == "" {
		settings.SentenceDeck = DefaultDeck
	}
	if settings.VocabDeck == "" {
		settings.VocabDeck = DefaultDeck
	}
	if settings.LanguageTag == "" {
		settings.LanguageTag = "français"
	}
	return &CardService{
		deckRepo: deckRepo,
		cardRepo: cardRepo,
		settings: settings,
		logger:   logger,
	}
}

// CreateCard builds a card of the given type from data and stores it.
// An empty deck selects the configured deck for the card type.
func (s *CardService) CreateCard(userID int64, cardType domain.CardType, deck string, data domain.CardData) (*domain.Card, error) {
	if !cardType.Valid() {
		return nil, fmt.Errorf("invalid card type %q: %w", cardType, domain.ErrInvalidInput)
	}

	word := strings.TrimSpace(data.SelectedWord)
	translation := strings.TrimSpace(data.Translation)
	sentence := strings.TrimSpace(data.SentenceForCard())
	if word == "" || translation == "" || sentence == "" {
		return nil, fmt.Errorf("missing required data (word, translation, or sentence): %w", domain.ErrInvalidInput)
	}

	card := &domain.Card{
		UserID:      userID,
		Deck:        strings.TrimSpace(deck),
		Type:        cardType,
		Target:      word,
		Translation: translation,
		Sentence:    sentence,
		Context:     data.Context,
		Locator:     data.Locator,
		SourceURL:   data.SourceURL,
	}
	switch cardType {
	case domain.CardSentence:
		card.ModelName = "1T (sentence)"
		card.Tags = []string{s.settings.LanguageTag, "glossari-sentence"}
		if card.Deck == "" {
			card.Deck = s.settings.SentenceDeck
		}
	case domain.CardVocab:
		card.ModelName = "1T (vocab)"
		card.Tags = []string{s.settings.LanguageTag, "glossari-vocab"}
		if card.Deck == "" {
			card.Deck = s.settings.VocabDeck
		}
	}

	deckID, err := s.deckRepo.EnsureDeck(userID, card.Deck)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "card store", Err: err}
	}
	if err := s.cardRepo.SaveCard(deckID, card); err != nil {
		return nil, &domain.ExternalServiceError{Service: "card store", Err: err}
	}

	s.logger.Info("Card created",
		zap.Int64("user_id", userID),
		zap.Int64("card_id", card.ID),
		zap.String("deck", card.Deck),
		zap.String("type", string(card.Type)),
	)
	return card, nil
}

// GetRandomCard returns a random card for review
func (s *CardService) GetRandomCard(userID int64) (*domain.Card, error) {
	return s.cardRepo.GetRandomCard(userID)
}

// GetDaysList returns paginated list of days with card counts
func (s *CardService) GetDaysList(userID int64, page int) ([]domain.Day, int, error) {
	const pageSize = 7

	if page < 1 {
		page = 1
	}

	offset := (page - 1) * pageSize
	days, err := s.cardRepo.GetDaysWithCards(userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	totalDays, err := s.cardRepo.GetTotalDaysCount(userID)
	if err != nil {
		return nil, 0, err
	}

	totalPages := (totalDays + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return days, totalPages, nil
}

// GetCardsByDate returns all cards for a specific date (YYYYMMDD)
func (s *CardService) GetCardsByDate(userID int64, dateStr string) ([]domain.Card, error) {
	date, err := time.Parse("20060102", dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %w", err)
	}

	return s.cardRepo.GetCardsByDate(userID, date)
}
