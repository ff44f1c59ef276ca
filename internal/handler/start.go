package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgInternalError = "Something went wrong. Please try again later."
	msgPassword      = "Hi! Send the password to get started:"
	msgMainMenu      = "🏠 Main menu\n\nSend a link or paste a passage, then send a word or phrase from it.\nOr choose an action:"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure user exists in database
	if err := h.authService.EnsureUserExists(userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return c.Send(msgInternalError)
	}

	// Check if authorized
	authorized, err := h.authService.IsAuthorized(userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgInternalError)
	}

	if !authorized {
		return c.Send(msgPassword)
	}

	return h.reply(c, msgMainMenu, mainMenuMarkup())
}

// handleClear forgets the loaded page and the selection
func (h *Handler) handleClear(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	h.dropSession(userID)
	h.logger.Info("Session cleared", zap.Int64("user_id", userID))
	return c.Send("🧹 Page and selection cleared.")
}

// handlePause switches capture off
func (h *Handler) handlePause(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	h.session(userID).toggle.Disable()
	return c.Send("⏸ Capture paused. Send /resume to continue.")
}

// handleResume switches capture back on
func (h *Handler) handleResume(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	h.session(userID).toggle.Enable()
	return c.Send("▶️ Capture resumed.")
}
