package postgres

import (
	"database/sql"
	"fmt"

	"glossari/internal/domain"
)

// DeckRepo implements repository.DeckRepository
type DeckRepo struct {
	db *sql.DB
}

// NewDeckRepo creates a new deck repository
func NewDeckRepo(db *sql.DB) *DeckRepo {
	return &DeckRepo{db: db}
}

// EnsureDeck returns the id of the user's deck with the given name,
// creating the deck on first use
func (r *DeckRepo) EnsureDeck(userID int64, name string) (int64, error) {
	query := `
		INSERT INTO decks (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRow(query, userID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to ensure deck %q: %w", name, err)
	}
	return id, nil
}

// DeckSummary returns every deck of the user with its card count
func (r *DeckRepo) DeckSummary(userID int64) ([]domain.DeckStat, error) {
	query := `
		SELECT d.name, COUNT(c.id)
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		WHERE d.user_id = $1
		GROUP BY d.name
		ORDER BY d.name
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decks: %w", err)
	}
	defer rows.Close()

	var stats []domain.DeckStat
	for rows.Next() {
		var s domain.DeckStat
		if err := rows.Scan(&s.Deck, &s.Cards); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
