package handler

import (
	"time"

	"glossari/internal/capture"
	"glossari/internal/domain"
	"glossari/internal/page"

	"go.uber.org/zap"
)

// session is the capture state of one user. Fields are guarded by the
// user's lock.
type session struct {
	machine  *capture.Machine
	toggle   *capture.Toggle
	snapshot page.Snapshot
	input    domain.InputState

	// ticket is the action waiting for the user's next message
	ticket *capture.Ticket

	translation string
	trimmed     string

	lastSeen    time.Time
	unsubscribe func()
}

func (s *session) loaded() bool {
	return s.snapshot.HTML != ""
}

// clearWork forgets results tied to the previous selection
func (s *session) clearWork() {
	s.translation = ""
	s.trimmed = ""
	s.ticket = nil
	s.input = domain.InputIdle
}

// session returns the capture session of userID, creating it on first use
func (h *Handler) session(userID int64) *session {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	sess, exists := h.sessions[userID]
	if !exists {
		sess = &session{
			machine: capture.NewMachine(),
			toggle:  capture.NewToggle(true),
			input:   domain.InputIdle,
		}
		// Switching capture off tears down the pending selection.
		sess.unsubscribe = sess.toggle.Subscribe(func(active bool) {
			if !active {
				sess.machine.Dismiss()
				sess.ticket = nil
				sess.input = domain.InputIdle
			}
		})
		h.sessions[userID] = sess
	}
	sess.lastSeen = h.now()
	return sess
}

// dropSession forgets the page and selection of userID
func (h *Handler) dropSession(userID int64) {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	if sess, exists := h.sessions[userID]; exists {
		sess.unsubscribe()
		delete(h.sessions, userID)
	}
}

// PruneSessions drops sessions idle for longer than maxIdle and returns how
// many were dropped. Sessions hold whole page snapshots.
func (h *Handler) PruneSessions(maxIdle time.Duration) int {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	cutoff := h.now().Add(-maxIdle)
	pruned := 0
	for userID, sess := range h.sessions {
		if sess.lastSeen.Before(cutoff) {
			sess.unsubscribe()
			delete(h.sessions, userID)
			pruned++
		}
	}

	if pruned > 0 {
		h.logger.Info("Pruned idle sessions",
			zap.Int("pruned", pruned),
			zap.Int("remaining", len(h.sessions)),
		)
	}
	return pruned
}
