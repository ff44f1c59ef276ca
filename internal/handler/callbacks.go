package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"glossari/internal/domain"
	"glossari/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	// If message is not modified, it means it was already edited by another callback
	// Just acknowledge and return nil - don't send new message
	if strings.Contains(errStr, "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	// Log the error to understand why Edit failed
	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	if route := h.routeFor(callback.Unique); route != nil {
		return route(c)
	}
	// Static buttons whose Unique did not come through
	if callback.Unique == "" {
		if route := h.routeFor(data); route != nil {
			return route(c)
		}
	}

	// Handle by Data prefix (dynamic buttons)
	switch {
	case strings.HasPrefix(data, "page_"):
		return h.handlePagination(c, data)
	case strings.HasPrefix(data, "day_"):
		return h.handleDaySelection(c, data)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// routeFor returns the handler of a static button
func (h *Handler) routeFor(unique string) tele.HandlerFunc {
	switch unique {
	case btnTranslate.Unique:
		return h.handleTranslate
	case btnExplain.Unique:
		return h.handleExplain
	case btnSentenceCard.Unique:
		return h.handleSentenceCard
	case btnVocabCard.Unique:
		return h.handleVocabCard
	case btnTrim.Unique:
		return h.handleTrim
	case btnDismiss.Unique:
		return h.handleDismiss
	case btnCancel.Unique:
		return h.handleCancel
	case btnViewDays.Unique, btnBackToDays.Unique:
		return h.handleViewDays
	case btnRandomCard.Unique, btnMore.Unique:
		return h.handleRandomCard
	case btnDecks.Unique:
		return h.handleDecks
	case btnBack.Unique, btnMainMenu.Unique:
		return h.handleStart
	}
	return nil
}

// reply edits the message behind a callback, or sends a new one for commands
func (h *Handler) reply(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() != nil {
		if err := c.Edit(text, markup); err != nil {
			if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
				return nil // Message was already modified, just acknowledged
			}
			return c.Send(text, markup)
		}
		return c.Respond()
	}
	return c.Send(text, markup)
}

// notify answers a callback, or sends a message for commands
func notify(c tele.Context, text string, alert bool) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert})
	}
	return c.Send(text)
}

// daysMarkup lists days as buttons with navigation for page
func daysMarkup(days []domain.Day, page, totalPages int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}

	for _, day := range days {
		btnText := fmt.Sprintf("%s (%d)", day.DisplayString(), day.CardCount)
		btn := markup.Data(btnText, "day_"+day.DateString())
		rows = append(rows, markup.Row(btn))
	}

	// Add pagination buttons
	if totalPages > 1 {
		navRow := tele.Row{}
		if page > 1 {
			navRow = append(navRow, markup.Data("⬅️", fmt.Sprintf("page_%d", page-1)))
		}
		if page < totalPages {
			navRow = append(navRow, markup.Data("➡️", fmt.Sprintf("page_%d", page+1)))
		}
		if len(navRow) > 0 {
			rows = append(rows, navRow)
		}
	}

	rows = append(rows, markup.Row(btnBack))
	markup.Inline(rows...)
	return markup
}

// handleViewDays shows list of days with cards
func (h *Handler) handleViewDays(c tele.Context) error {
	userID := c.Sender().ID

	days, totalPages, err := h.cardService.GetDaysList(userID, 1)
	if err != nil {
		h.logger.Error("Failed to get days list", zap.Error(err))
		return notify(c, "Failed to load data", false)
	}

	if len(days) == 0 {
		return notify(c, "You have no saved cards yet", true)
	}

	return h.reply(c, "📅 Your days:", daysMarkup(days, 1, totalPages))
}

// handlePagination handles page navigation
func (h *Handler) handlePagination(c tele.Context, data string) error {
	userID := c.Sender().ID

	pageStr := strings.TrimPrefix(strings.TrimSpace(data), "page_")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}

	days, totalPages, err := h.cardService.GetDaysList(userID, page)
	if err != nil {
		h.logger.Error("Failed to get days list", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Failed to load data"})
	}

	if len(days) == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "No data"})
	}

	return h.reply(c, "📅 Your days:", daysMarkup(days, page, totalPages))
}

// handleDaySelection shows cards for selected day
func (h *Handler) handleDaySelection(c tele.Context, data string) error {
	userID := c.Sender().ID

	dateStr := strings.TrimPrefix(strings.TrimSpace(data), "day_")
	h.logger.Debug("Handling day selection", zap.String("date", dateStr), zap.Int64("user_id", userID))

	cards, err := h.cardService.GetCardsByDate(userID, dateStr)
	if err != nil {
		h.logger.Error("Failed to get cards by date", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Failed to load data"})
	}

	if len(cards) == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "No cards for this day"})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 Cards of the day (%d):\n\n", len(cards))
	for i, card := range cards {
		fmt.Fprintf(&sb, "%d. %s — %s\n%s\n\n", i+1, card.Target, card.Translation, card.Sentence)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnBackToDays, btnMainMenu),
	)

	return h.reply(c, sb.String(), markup)
}

// handleRandomCard shows a random card for review
func (h *Handler) handleRandomCard(c tele.Context) error {
	userID := c.Sender().ID

	// Serialize with other updates of this user
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	card, err := h.cardService.GetRandomCard(userID)
	if err != nil {
		h.logger.Error("Failed to get random card", zap.Error(err))
		return notify(c, "Failed to load data", false)
	}

	if card == nil {
		return notify(c, "You have no saved cards yet", true)
	}

	text := fmt.Sprintf("🎲 Random card:\n\n📝 %s\n🔄 %s\n📖 %s", card.Target, card.Translation, card.Sentence)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnMore),
		markup.Row(btnBack),
	)

	return h.reply(c, text, markup)
}

// handleDecks shows how many cards each deck holds
func (h *Handler) handleDecks(c tele.Context) error {
	userID := c.Sender().ID

	stats, err := h.statsService.DeckSummary(userID)
	if err != nil {
		h.logger.Error("Failed to get deck summary", zap.Error(err))
		return notify(c, "Failed to load data", false)
	}

	if len(stats) == 0 {
		return notify(c, "You have no decks yet", true)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 Decks (%d cards):\n", service.TotalCards(stats))
	for _, st := range stats {
		fmt.Fprintf(&sb, "\n%s: %d", st.Deck, st.Cards)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnBack))

	return h.reply(c, sb.String(), markup)
}
