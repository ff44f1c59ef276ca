package handler

import (
	"testing"
	"time"

	"glossari/internal/domain"
	"glossari/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestCleanCallbackData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "day payload with unique marker", input: "\fday_20240301", expected: "day_20240301"},
		{name: "page payload with unique marker", input: "\fpage_2", expected: "page_2"},
		{name: "static button", input: "translate", expected: "translate"},
		{name: "padded payload", input: "  \fpage_3 \n", expected: "page_3"},
		{name: "control bytes inside", input: "day_2024\x0003\x0101", expected: "day_20240301"},
		{name: "marker only", input: "\f", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanCallbackData(tt.input))
		})
	}
}

func TestHandleCallback_DaySelection(t *testing.T) {
	f := newFixture(t, false)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.cardRepo.On("GetCardsByDate", testUserID, date).
		Return([]domain.Card{*testutil.NewTestCard(1, testUserID, "chat", "cat", "Le chat dort.")}, nil)

	// Dynamic buttons arrive with telebot's unique marker in Data.
	c := callbackContext("\fday_20240301")
	require.NoError(t, f.handler.handleCallback(c))

	assert.Equal(t, "📝 Cards of the day (1):\n\n1. chat — cat\nLe chat dort.\n\n", c.last())
	f.cardRepo.AssertExpectations(t)
}

func TestHandleCallback_Pagination(t *testing.T) {
	days := []domain.Day{testutil.NewTestDay(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), 4)}

	tests := []struct {
		name         string
		data         string
		offset       int
		expectedRows int
		expectedNav  []string
	}{
		{name: "middle page", data: "\fpage_2", offset: 7, expectedRows: 3, expectedNav: []string{"page_1", "page_3"}},
		{name: "last page", data: "\fpage_3", offset: 14, expectedRows: 3, expectedNav: []string{"page_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.cardRepo.On("GetDaysWithCards", testUserID, 7, tt.offset).Return(days, nil)
			f.cardRepo.On("GetTotalDaysCount", testUserID).Return(15, nil)

			c := callbackContext(tt.data)
			require.NoError(t, f.handler.handleCallback(c))

			assert.Equal(t, "📅 Your days:", c.last())
			markup := c.markups[len(c.markups)-1]
			require.Len(t, markup.InlineKeyboard, tt.expectedRows)

			var nav []string
			for _, btn := range markup.InlineKeyboard[1] {
				nav = append(nav, btn.Unique)
			}
			assert.Equal(t, tt.expectedNav, nav)
		})
	}
}

func TestHandleCallback_InvalidPage(t *testing.T) {
	f := newFixture(t, false)

	c := callbackContext("\fpage_x")
	require.NoError(t, f.handler.handleCallback(c))

	assert.Equal(t, "Invalid page", c.lastResponse())
	assert.Empty(t, f.cardRepo.Calls)
}

func TestHandleCallback_StaticRoute(t *testing.T) {
	f := newFixture(t, false)
	f.deckRepo.On("DeckSummary", testUserID).Return([]domain.DeckStat{
		{Deck: "Languages::French::n+1", Cards: 3},
		{Deck: "Misc", Cards: 1},
	}, nil)

	c := callbackContext("decks")
	require.NoError(t, f.handler.handleCallback(c))

	assert.Equal(t, "🗂 Decks (4 cards):\n\nLanguages::French::n+1: 3\nMisc: 1", c.last())
}

func TestHandleCallback_Unhandled(t *testing.T) {
	f := newFixture(t, false)

	c := callbackContext("\funknown_42")
	require.NoError(t, f.handler.handleCallback(c))

	assert.Empty(t, c.sent)
}

func callbackContext(data string) *fakeContext {
	return &fakeContext{
		sender:   &tele.User{ID: testUserID},
		callback: &tele.Callback{ID: "cb", Data: data},
	}
}
