package service

import (
	"glossari/internal/domain"
	"glossari/internal/repository"

	"go.uber.org/zap"
)

// StatsService reports on the user's decks
type StatsService struct {
	deckRepo repository.DeckRepository
	logger   *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(deckRepo repository.DeckRepository, logger *zap.Logger) *StatsService {
	return &StatsService{
		deckRepo: deckRepo,
		logger:   logger,
	}
}

// DeckSummary returns the card count of every deck of the user
func (s *StatsService) DeckSummary(userID int64) ([]domain.DeckStat, error) {
	stats, err := s.deckRepo.DeckSummary(userID)
	if err != nil {
		s.logger.Error("Failed to load deck summary", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return stats, nil
}

// TotalCards sums the card counts of stats
func TotalCards(stats []domain.DeckStat) int {
	total := 0
	for _, s := range stats {
		total += s.Cards
	}
	return total
}
