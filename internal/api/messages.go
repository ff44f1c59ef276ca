package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"glossari/internal/capture"
	"glossari/internal/domain"
	"glossari/internal/domtext"
	"glossari/internal/page"
	"glossari/internal/protocol"
	"glossari/internal/service"

	"go.uber.org/zap"
)

type captureResponse struct {
	Selection domain.Selection `json:"selection"`
}

type resolveResponse struct {
	AnchorText string `json:"anchorText"`
}

type translationResponse struct {
	Mode   protocol.TranslationMode `json:"mode"`
	Text   string                   `json:"text"`
	Result string                   `json:"result"`
	// Stale is set when a newer selection replaced the one being translated
	Stale bool `json:"stale,omitempty"`
}

type cardResponse struct {
	Card    *domain.Card   `json:"card"`
	Fields  []domain.Field `json:"fields"`
	Warning string         `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request")
		return
	}
	if len(body) > maxRequestSize {
		writeError(w, http.StatusRequestEntityTooLarge, "request too large")
		return
	}

	msg, err := protocol.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp any
	switch m := msg.(type) {
	case protocol.CaptureRequest:
		resp, err = s.capture(m)
	case protocol.ResolveLocatorRequest:
		resp, err = s.resolve(m)
	case protocol.TranslationRequest:
		resp, err = s.translate(r, m)
	case protocol.CardCreationRequest:
		resp, err = s.createCard(m)
	default:
		err = fmt.Errorf("%w: %s", protocol.ErrUnknownAction, msg.Action())
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Message failed", zap.String("action", msg.Action()), zap.Error(err))
		}
		text := err.Error()
		if status == http.StatusServiceUnavailable {
			text += "; supply the translation in requestCardCreation instead"
		}
		writeError(w, status, text)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) capture(m protocol.CaptureRequest) (captureResponse, error) {
	sel, err := s.extraction.Capture(service.CaptureInput{
		Snapshot:      page.Snapshot{URL: m.PageURL, Title: m.PageTitle, HTML: m.HTML},
		Text:          m.Text,
		Occurrence:    m.Occurrence,
		Within:        m.Within,
		ContextWindow: m.ContextWindow,
	})
	if err != nil {
		// A failed capture leaves nothing selected.
		s.session.Dismiss()
		return captureResponse{}, err
	}
	s.session.Select(sel)
	return captureResponse{Selection: sel}, nil
}

func (s *Server) resolve(m protocol.ResolveLocatorRequest) (resolveResponse, error) {
	text, err := s.extraction.Resolve(m.HTML, m.Locator)
	if err != nil {
		return resolveResponse{}, err
	}
	return resolveResponse{AnchorText: text}, nil
}

func (s *Server) translate(r *http.Request, m protocol.TranslationRequest) (translationResponse, error) {
	action := capture.ActionTranslate
	if m.Mode == protocol.ModeExplain {
		action = capture.ActionExplain
	}

	// Requests about the current candidate are tracked so that a result
	// arriving after a newer capture is flagged as stale.
	var ticket *capture.Ticket
	if c, ok := s.session.Candidate(); ok && c.SelectedText == m.Text {
		if t, err := s.session.Begin(action); err == nil {
			ticket = &t
		}
	}

	var result string
	var err error
	if m.Mode == protocol.ModeExplain {
		result, err = s.translation.Explain(r.Context(), m.Text)
	} else {
		result, err = s.translation.Translate(r.Context(), m.Text)
	}

	stale := false
	if ticket != nil {
		stale = !s.session.Complete(*ticket)
	}
	if err != nil {
		return translationResponse{}, err
	}
	return translationResponse{Mode: m.Mode, Text: m.Text, Result: result, Stale: stale}, nil
}

func (s *Server) createCard(m protocol.CardCreationRequest) (cardResponse, error) {
	data := domain.CardData{
		SelectedWord:    m.Word,
		Translation:     m.Translation,
		TrimmedSentence: m.TrimmedSentence,
		FullSentence:    m.Sentence,
		Context:         m.Context,
		SourceURL:       m.SourceURL,
	}

	var warning string
	if m.Locator == nil && m.TrimmedSentence != "" {
		trimmed := domtext.Normalize(m.TrimmedSentence)
		if !strings.Contains(trimmed, domtext.Normalize(m.Word)) {
			return cardResponse{}, fmt.Errorf("trimmed sentence must contain %q: %w", m.Word, domain.ErrInvalidInput)
		}
		data.TrimmedSentence = trimmed
	}
	if m.Locator != nil {
		data.Locator = m.Locator.String()
		if m.TrimmedSentence != "" {
			sel := domain.Selection{SelectedText: m.Word, Locator: *m.Locator}
			res, err := s.extraction.Trim(m.HTML, sel, m.TrimmedSentence)
			if err != nil {
				return cardResponse{}, err
			}
			data.TrimmedSentence = res.Sentence
			warning = res.Warning
		}
	}

	card, err := s.cards.CreateCard(s.userID, m.Type, m.Deck, data)
	if err != nil {
		return cardResponse{}, err
	}
	return cardResponse{Card: card, Fields: card.Fields(), Warning: warning}, nil
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var extErr *domain.ExternalServiceError
	switch {
	case errors.Is(err, protocol.ErrInvalidMessage), errors.Is(err, protocol.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLocatorStale):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrAnchorNotFound),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &extErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
