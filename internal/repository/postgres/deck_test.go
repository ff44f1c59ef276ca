package postgres

import (
	"errors"
	"testing"

	"glossari/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckRepo_EnsureDeck(t *testing.T) {
	tests := []struct {
		name          string
		mockError     error
		expectedID    int64
		expectedError bool
	}{
		{name: "created or existing", expectedID: 5},
		{name: "database error", mockError: errors.New("boom"), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewDeckRepo(db)
			expect := mock.ExpectQuery("INSERT INTO decks .* RETURNING id").
				WithArgs(int64(123), "Languages::French::n+1")
			if tt.mockError != nil {
				expect.WillReturnError(tt.mockError)
			} else {
				expect.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(tt.expectedID))
			}

			id, err := repo.EnsureDeck(123, "Languages::French::n+1")

			if tt.expectedError {
				assert.ErrorContains(t, err, "failed to ensure deck")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, id)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeckRepo_DeckSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDeckRepo(db)

	mock.ExpectQuery("SELECT d.name, COUNT\\(c.id\\)").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).
			AddRow("Languages::French::n+1", 10).
			AddRow("Vocab", 0))

	stats, err := repo.DeckSummary(123)

	require.NoError(t, err)
	assert.Equal(t, []domain.DeckStat{
		{Deck: "Languages::French::n+1", Cards: 10},
		{Deck: "Vocab", Cards: 0},
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
