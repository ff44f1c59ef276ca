// Package capture tracks the selection a user is currently acting on.
package capture

import (
	"errors"
	"sync"

	"glossari/internal/domain"
)

// State of a capture session.
type State string

const (
	StateIdle              State = "idle"
	StateCandidateSelected State = "candidate_selected"
	StateActionPending     State = "action_pending"
)

// Action is what the user asked to do with the candidate.
type Action string

const (
	ActionTranslate    Action = "translate"
	ActionExplain      Action = "explain"
	ActionSentenceCard Action = "sentence_card"
	ActionVocabCard    Action = "vocab_card"
	ActionTrim         Action = "trim"
)

// ErrNoCandidate means there is no selection to act on.
var ErrNoCandidate = errors.New("no selection to act on")

// Ticket identifies one pending action. It goes stale as soon as a newer
// selection or a dismiss happens.
type Ticket struct {
	Action    Action
	Selection domain.Selection
	gen       uint64
}

// Machine is the capture state of one session. Safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	state     State
	candidate *domain.Selection
	last      *domain.Selection
	pending   Action
	gen       uint64
}

// NewMachine returns an idle machine.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Candidate returns the selection currently shown to the user.
func (m *Machine) Candidate() (domain.Selection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candidate == nil {
		return domain.Selection{}, false
	}
	return *m.candidate, true
}

// Last returns the most recent selection, even after the session went idle.
func (m *Machine) Last() (domain.Selection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return domain.Selection{}, false
	}
	return *m.last, true
}

// Pending returns the action in flight, if any.
func (m *Machine) Pending() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending, m.state == StateActionPending
}

// Select replaces any previous candidate with sel. A pending action on the
// previous candidate becomes stale.
func (m *Machine) Select(sel domain.Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.candidate = &sel
	m.last = &sel
	m.pending = ""
	m.state = StateCandidateSelected
}

// Begin starts action on the current candidate.
func (m *Machine) Begin(action Action) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCandidateSelected || m.candidate == nil {
		return Ticket{}, ErrNoCandidate
	}
	m.state = StateActionPending
	m.pending = action
	return Ticket{Action: action, Selection: *m.candidate, gen: m.gen}, nil
}

// Complete finishes the action started with t and returns the machine to
// idle. It reports false when t is stale; the caller must then drop the
// result.
func (m *Machine) Complete(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.gen != m.gen || m.state != StateActionPending {
		return false
	}
	m.gen++
	m.candidate = nil
	m.pending = ""
	m.state = StateIdle
	return true
}

// Dismiss drops the candidate and any pending action.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.candidate = nil
	m.pending = ""
	m.state = StateIdle
}

// Retry makes the last selection the candidate again, so a second action
// can run on the same text.
func (m *Machine) Retry() (domain.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return domain.Selection{}, ErrNoCandidate
	}
	if m.state == StateActionPending {
		m.gen++
	}
	sel := *m.last
	m.candidate = &sel
	m.pending = ""
	m.state = StateCandidateSelected
	return sel, nil
}

// Reset forgets everything, including the last selection.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.candidate = nil
	m.last = nil
	m.pending = ""
	m.state = StateIdle
}
