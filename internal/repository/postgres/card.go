package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"glossari/internal/domain"

	"github.com/lib/pq"
)

const cardColumns = `c.id, c.user_id, d.name, c.card_type, c.model_name, c.target,
	c.translation, c.sentence, c.context, c.locator, c.source_url, c.tags, c.created_at`

// CardRepo implements repository.CardRepository.
// Days are computed in the configured timezone.
type CardRepo struct {
	db       *sql.DB
	timezone string
}

// NewCardRepo creates a new card repository
func NewCardRepo(db *sql.DB, timezone string) *CardRepo {
	if timezone == "" {
		timezone = "UTC"
	}
	return &CardRepo{db: db, timezone: timezone}
}

// SaveCard stores card in the deck and fills in its id and creation time
func (r *CardRepo) SaveCard(deckID int64, card *domain.Card) error {
	query := `
		INSERT INTO cards (user_id, deck_id, card_type, model_name, target, translation,
			sentence, context, locator, source_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		card.UserID, deckID, string(card.Type), card.ModelName, card.Target, card.Translation,
		card.Sentence, card.Context, card.Locator, card.SourceURL, pq.Array(card.Tags),
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// GetRandomCard returns a random card of the user, or nil if there are none
func (r *CardRepo) GetRandomCard(userID int64) (*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE c.user_id = $1
		ORDER BY RANDOM()
		LIMIT 1
	`
	card, err := scanCard(r.db.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// GetDaysWithCards returns days that have cards with counts, newest first
func (r *CardRepo) GetDaysWithCards(userID int64, limit, offset int) ([]domain.Day, error) {
	query := `
		SELECT DATE(created_at AT TIME ZONE $2) AS day, COUNT(*) AS count
		FROM cards
		WHERE user_id = $1
		GROUP BY DATE(created_at AT TIME ZONE $2)
		ORDER BY day DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(query, userID, r.timezone, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		var d domain.Day
		if err := rows.Scan(&d.Date, &d.CardCount); err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	return days, rows.Err()
}

// GetTotalDaysCount returns total number of days with cards
func (r *CardRepo) GetTotalDaysCount(userID int64) (int, error) {
	query := `
		SELECT COUNT(DISTINCT DATE(created_at AT TIME ZONE $2))
		FROM cards
		WHERE user_id = $1
	`

	var count int
	err := r.db.QueryRow(query, userID, r.timezone).Scan(&count)
	return count, err
}

// GetCardsByDate returns all cards created on the given calendar day
func (r *CardRepo) GetCardsByDate(userID int64, date time.Time) ([]domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE c.user_id = $1
			AND DATE(c.created_at AT TIME ZONE $2) = $3
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.Query(query, userID, r.timezone, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}

	return cards, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var c domain.Card
	var cardType string
	err := s.Scan(
		&c.ID, &c.UserID, &c.Deck, &cardType, &c.ModelName, &c.Target,
		&c.Translation, &c.Sentence, &c.Context, &c.Locator, &c.SourceURL,
		pq.Array(&c.Tags), &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CardType(cardType)
	return &c, nil
}
