package testutil

import (
	"time"

	"glossari/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, authorized bool) *domain.User {
	return &domain.User{
		UserID:     userID,
		Authorized: authorized,
		CreatedAt:  time.Now(),
	}
}

// NewTestCard creates a test vocab card
func NewTestCard(id, userID int64, target, translation, sentence string) *domain.Card {
	return &domain.Card{
		ID:          id,
		UserID:      userID,
		Deck:        "Languages::French::n+1",
		Type:        domain.CardVocab,
		ModelName:   "1T (vocab)",
		Target:      target,
		Translation: translation,
		Sentence:    sentence,
		Tags:        []string{"français", "glossari-vocab"},
		CreatedAt:   time.Now(),
	}
}

// NewTestDay creates a test day
func NewTestDay(date time.Time, cardCount int) domain.Day {
	return domain.Day{
		Date:      date,
		CardCount: cardCount,
	}
}

// NewTestSelection creates a selection as captured from a single paragraph
func NewTestSelection(selected, sentence, block string, loc domain.Locator) domain.Selection {
	return domain.Selection{
		ID:              "sel-" + selected,
		SelectedText:    selected,
		Sentence:        sentence,
		ContextualBlock: block,
		Locator:         loc,
		CapturedAt:      time.Now(),
	}
}
