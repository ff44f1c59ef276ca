package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"glossari/internal/domain"
	"glossari/internal/page"
	"glossari/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const fetchTimeout = 45 * time.Second

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") || text == "" {
		return nil
	}

	// Ensure user exists
	if err := h.authService.EnsureUserExists(userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return nil
	}

	// Check authorization first
	authorized, err := h.authService.IsAuthorized(userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgInternalError)
	}

	// If not authorized, check password
	if !authorized {
		if h.authService.CheckPassword(text) {
			if err := h.authService.AuthorizeUser(userID); err != nil {
				h.logger.Error("Failed to authorize user", zap.Error(err))
				return c.Send(msgInternalError)
			}

			h.logger.Info("User authorized", zap.Int64("user_id", userID))
			return c.Send("✅ Access granted!\n\n"+msgMainMenu, mainMenuMarkup())
		}

		return c.Send("Wrong password")
	}

	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// User is authorized, handle based on state
	sess := h.session(userID)

	switch sess.input {
	case domain.InputWaitingTranslation:
		return h.finishManualCard(c, sess, text)

	case domain.InputWaitingTrim:
		return h.finishTrim(c, sess, text)

	default:
		if !sess.toggle.Active() {
			return c.Send("⏸ Capture is paused. Send /resume to continue.")
		}
		if isURL(text) {
			return h.loadPage(c, sess, text)
		}
		if !sess.loaded() || strings.Contains(text, "\n") {
			return h.loadPassage(c, sess, text)
		}
		return h.capturePhrase(c, sess, text)
	}
}

// loadPage downloads the page the user linked to
func (h *Handler) loadPage(c tele.Context, sess *session, pageURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	snap, err := h.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		h.logger.Warn("Failed to fetch page",
			zap.Int64("user_id", c.Sender().ID),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return c.Send("Couldn't load this page. Try another link or paste the text instead.")
	}

	h.setPage(sess, snap)

	title := snap.Title
	if title == "" {
		title = pageURL
	}
	return c.Send(fmt.Sprintf("📄 Loaded: %s\n\nNow send a word or phrase from the page.", title))
}

// loadPassage makes a pasted passage the current page
func (h *Handler) loadPassage(c tele.Context, sess *session, text string) error {
	h.setPage(sess, page.FromText(text))
	return c.Send("📄 Passage saved.\n\nNow send a word or phrase from it.")
}

func (h *Handler) setPage(sess *session, snap page.Snapshot) {
	sess.snapshot = snap
	sess.machine.Reset()
	sess.clearWork()
}

// capturePhrase selects text on the current page. A trailing "#N" picks the
// N-th occurrence.
func (h *Handler) capturePhrase(c tele.Context, sess *session, text string) error {
	phrase, occurrence := parseOccurrence(text)

	sel, err := h.extraction.Capture(service.CaptureInput{
		Snapshot:   sess.snapshot,
		Text:       phrase,
		Occurrence: occurrence,
	})
	if err != nil {
		// A failed capture leaves nothing selected, not even for a retry.
		sess.machine.Reset()
		sess.clearWork()
		if errors.Is(err, domain.ErrEmptySelection) {
			return c.Send(fmt.Sprintf("Couldn't find «%s» on the current page.\nSend a link or a passage to switch pages, or /clear to start over.", phrase))
		}
		h.logger.Error("Failed to capture selection",
			zap.Int64("user_id", c.Sender().ID),
			zap.Error(err),
		)
		return c.Send(msgInternalError)
	}

	sess.machine.Select(sel)
	sess.clearWork()

	return c.Send(formatSelection(sel), h.selectionMarkup())
}

// finishTrim validates the trimmed sentence sent by the user
func (h *Handler) finishTrim(c tele.Context, sess *session, text string) error {
	if sess.ticket == nil {
		sess.input = domain.InputIdle
		return c.Send("Nothing to trim. Send a word or phrase first.")
	}
	ticket := *sess.ticket

	res, err := h.extraction.Trim(sess.snapshot.HTML, ticket.Selection, text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Send(fmt.Sprintf("The trimmed sentence must contain «%s» and come from the original text. Try again:", ticket.Selection.SelectedText), cancelMarkup())
		}
		h.logger.Error("Failed to trim sentence", zap.Error(err))
		return c.Send(msgInternalError)
	}

	translation := sess.translation
	sess.clearWork()
	if !sess.machine.Complete(ticket) {
		return c.Send("The selection changed in the meantime. Send the word again.")
	}
	sess.translation = translation
	sess.trimmed = res.Sentence

	msg := "✂️ Sentence trimmed:\n" + res.Sentence
	if res.Warning != "" {
		msg += "\n\n⚠️ Note: " + res.Warning
	}
	return c.Send(msg, h.selectionMarkup())
}

// finishManualCard creates the pending card with the translation typed by
// the user
func (h *Handler) finishManualCard(c tele.Context, sess *session, text string) error {
	if sess.ticket == nil {
		sess.input = domain.InputIdle
		return c.Send("Nothing to save. Send a word or phrase first.")
	}
	return h.saveCard(c, sess, *sess.ticket, text)
}

// parseOccurrence splits "phrase #N" into the phrase and a 0-based
// occurrence index
func parseOccurrence(text string) (string, int) {
	i := strings.LastIndex(text, " #")
	if i < 0 {
		return text, 0
	}
	n, err := strconv.Atoi(text[i+2:])
	if err != nil || n < 1 {
		return text, 0
	}
	return strings.TrimSpace(text[:i]), n - 1
}

func isURL(text string) bool {
	if strings.ContainsAny(text, " \n") {
		return false
	}
	u, err := url.Parse(text)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func formatSelection(sel domain.Selection) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📌 %s\n\n📖 %s", sel.SelectedText, sel.Sentence)
	if sel.ContextualBlock != sel.Sentence {
		fmt.Fprintf(&sb, "\n\n🧩 %s", sel.ContextualBlock)
	}
	if sel.Degraded != domain.DegradedNone {
		sb.WriteString("\n\n⚠️ The sentence could not be isolated precisely.")
	}
	return sb.String()
}
