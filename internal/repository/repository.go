package repository

import (
	"time"

	"glossari/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	IsAuthorized(userID int64) (bool, error)
	AuthorizeUser(userID int64) error
	EnsureUserExists(userID int64) error
}

// DeckRepository defines deck data operations
type DeckRepository interface {
	EnsureDeck(userID int64, name string) (int64, error)
	DeckSummary(userID int64) ([]domain.DeckStat, error)
}

// CardRepository defines flashcard data operations
type CardRepository interface {
	SaveCard(deckID int64, card *domain.Card) error
	GetRandomCard(userID int64) (*domain.Card, error)
	GetDaysWithCards(userID int64, limit, offset int) ([]domain.Day, error)
	GetCardsByDate(userID int64, date time.Time) ([]domain.Card, error)
	GetTotalDaysCount(userID int64) (int, error)
}
