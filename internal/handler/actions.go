package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glossari/internal/capture"
	"glossari/internal/domain"
	"glossari/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const lookupTimeout = 30 * time.Second

// begin starts action on the current selection. After a completed action
// the last selection is picked up again, so several actions can run on the
// same text.
func begin(sess *session, action capture.Action) (capture.Ticket, error) {
	ticket, err := sess.machine.Begin(action)
	if errors.Is(err, capture.ErrNoCandidate) {
		if _, err := sess.machine.Retry(); err != nil {
			return capture.Ticket{}, err
		}
		return sess.machine.Begin(action)
	}
	return ticket, err
}

func (h *Handler) handleTranslate(c tele.Context) error {
	return h.handleLookup(c, capture.ActionTranslate)
}

func (h *Handler) handleExplain(c tele.Context) error {
	return h.handleLookup(c, capture.ActionExplain)
}

// handleLookup translates or explains the current selection
func (h *Handler) handleLookup(c tele.Context, action capture.Action) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := h.session(userID)
	ticket, err := begin(sess, action)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Send a word or phrase first"})
	}

	text := ticket.Selection.SelectedText
	result, err := h.lookup(action, text)
	if !sess.machine.Complete(ticket) {
		return c.Respond(&tele.CallbackResponse{Text: "The selection changed, result dropped"})
	}
	if err != nil {
		return h.respondLookupError(c, err)
	}

	var msg string
	if action == capture.ActionExplain {
		msg = fmt.Sprintf("💡 %s\n\n%s", text, result)
	} else {
		sess.translation = result
		msg = fmt.Sprintf("🔄 %s — %s", text, result)
	}

	if err := c.Send(msg, h.selectionMarkup()); err != nil {
		return err
	}
	return c.Respond()
}

func (h *Handler) lookup(action capture.Action, text string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	if action == capture.ActionExplain {
		return h.translation.Explain(ctx, text)
	}
	return h.translation.Translate(ctx, text)
}

func (h *Handler) respondLookupError(c tele.Context, err error) error {
	var extErr *domain.ExternalServiceError
	switch {
	case errors.Is(err, service.ErrNoDefinition), errors.Is(err, service.ErrNoExplanation):
		return c.Respond(&tele.CallbackResponse{Text: "Nothing found for this selection", ShowAlert: true})
	case errors.Is(err, domain.ErrServiceUnavailable):
		return c.Respond(&tele.CallbackResponse{Text: "This service is not configured", ShowAlert: true})
	case errors.As(err, &extErr):
		h.logger.Warn("Lookup failed", zap.String("service", extErr.Service), zap.Error(extErr.Err))
		return c.Respond(&tele.CallbackResponse{Text: "The " + extErr.Service + " service failed, try again later", ShowAlert: true})
	default:
		h.logger.Error("Lookup failed", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: msgInternalError})
	}
}

func (h *Handler) handleSentenceCard(c tele.Context) error {
	return h.handleCard(c, capture.ActionSentenceCard)
}

func (h *Handler) handleVocabCard(c tele.Context) error {
	return h.handleCard(c, capture.ActionVocabCard)
}

// handleCard creates a card from the current selection. Without a known
// translation the user is asked to type one.
func (h *Handler) handleCard(c tele.Context, action capture.Action) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := h.session(userID)
	ticket, err := begin(sess, action)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Send a word or phrase first"})
	}

	translation := sess.translation
	if translation == "" && h.translation.CanTranslate() {
		translation, err = h.lookup(capture.ActionTranslate, ticket.Selection.SelectedText)
		if err != nil {
			h.logger.Warn("Automatic translation failed, asking the user",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			translation = ""
		}
	}

	if translation == "" {
		sess.ticket = &ticket
		sess.input = domain.InputWaitingTranslation
		if err := c.Send(fmt.Sprintf("✍️ Send the translation for «%s»:", ticket.Selection.SelectedText), cancelMarkup()); err != nil {
			return err
		}
		return c.Respond()
	}

	if err := h.saveCard(c, sess, ticket, translation); err != nil {
		return err
	}
	return c.Respond()
}

// saveCard completes ticket and stores the card it asked for
func (h *Handler) saveCard(c tele.Context, sess *session, ticket capture.Ticket, translation string) error {
	userID := c.Sender().ID
	sel := ticket.Selection
	trimmed := sess.trimmed

	sess.clearWork()
	if !sess.machine.Complete(ticket) {
		h.logger.Info("Dropping card for a stale selection", zap.Int64("user_id", userID))
		return c.Send("The selection changed in the meantime. Send the word again.")
	}
	// The translation stays available for a second card on the same text.
	sess.translation = strings.TrimSpace(translation)
	sess.trimmed = trimmed

	cardType := domain.CardSentence
	if ticket.Action == capture.ActionVocabCard {
		cardType = domain.CardVocab
	}

	card, err := h.cardService.CreateCard(userID, cardType, "", domain.CardData{
		SelectedWord:    sel.SelectedText,
		Translation:     translation,
		TrimmedSentence: trimmed,
		FullSentence:    sel.Sentence,
		Context:         sel.ContextualBlock,
		Locator:         sel.Locator.String(),
		SourceURL:       sel.PageURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Send("Couldn't create the card: " + err.Error())
		}
		h.logger.Error("Failed to save card",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return c.Send("Couldn't save the card. Please try again.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Saved to %s\n", card.Deck)
	for _, f := range card.Fields() {
		fmt.Fprintf(&sb, "\n%s: %s", f.Name, f.Value)
	}
	return c.Send(sb.String(), h.selectionMarkup())
}

// handleTrim asks the user for a shorter version of the sentence
func (h *Handler) handleTrim(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := h.session(userID)
	ticket, err := begin(sess, capture.ActionTrim)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Send a word or phrase first"})
	}

	sess.ticket = &ticket
	sess.input = domain.InputWaitingTrim

	sentence := ticket.Selection.Sentence
	if sess.trimmed != "" {
		sentence = sess.trimmed
	}
	if err := c.Send(fmt.Sprintf("✂️ Send the part of the sentence to keep. It must contain «%s».\n\n%s", ticket.Selection.SelectedText, sentence), cancelMarkup()); err != nil {
		return err
	}
	return c.Respond()
}

// handleDismiss drops the selection
func (h *Handler) handleDismiss(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := h.session(userID)
	sess.machine.Reset()
	sess.clearWork()

	if err := c.Edit("Selection dismissed. Send another word or phrase."); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send("Selection dismissed. Send another word or phrase.")
	}
	return c.Respond()
}

// handleCancel abandons the action waiting for input and keeps the selection
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := h.session(userID)
	sess.ticket = nil
	sess.input = domain.InputIdle

	sel, err := sess.machine.Retry()
	if err != nil {
		return h.reply(c, msgMainMenu, mainMenuMarkup())
	}
	return h.reply(c, formatSelection(sel), h.selectionMarkup())
}
