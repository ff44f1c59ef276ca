// Package protocol defines the messages a client exchanges with the server.
// Every message travels in an envelope {"action": ..., "payload": {...}}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"glossari/internal/domain"
)

const (
	ActionCapture            = "capture"
	ActionResolveLocator     = "resolveLocator"
	ActionRequestTranslation = "requestTranslation"
	ActionRequestCard        = "requestCardCreation"
)

var (
	// ErrUnknownAction is returned for envelopes with an action not listed above.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidMessage is returned for malformed envelopes or payloads.
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is implemented only by the request types of this package.
type Message interface {
	Action() string
	Validate() error
	message()
}

// Envelope is the wire form of a Message.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// CaptureRequest asks for a Selection. The selection is given as its text
// and the index of its occurrence in the page.
type CaptureRequest struct {
	PageURL       string          `json:"pageUrl,omitempty"`
	PageTitle     string          `json:"pageTitle,omitempty"`
	HTML          string          `json:"html"`
	Text          string          `json:"text"`
	Occurrence    int             `json:"occurrence,omitempty"`
	Within        *domain.Locator `json:"within,omitempty"`
	ContextWindow *int            `json:"contextWindow,omitempty"`
}

// ResolveLocatorRequest asks for the text of the block a locator designates.
type ResolveLocatorRequest struct {
	HTML    string         `json:"html"`
	Locator domain.Locator `json:"locator"`
}

// TranslationMode selects the collaborator answering a TranslationRequest.
type TranslationMode string

const (
	ModeTranslate TranslationMode = "translate"
	ModeExplain   TranslationMode = "explain"
)

// TranslationRequest asks for a translation or an explanation of Text.
type TranslationRequest struct {
	Mode TranslationMode `json:"mode"`
	Text string          `json:"text"`
}

// CardCreationRequest asks for a flashcard. When HTML and Locator are set,
// a trimmed sentence is checked against the page before the card is saved.
type CardCreationRequest struct {
	Type            domain.CardType `json:"type"`
	Deck            string          `json:"deck,omitempty"`
	Word            string          `json:"word"`
	Translation     string          `json:"translation"`
	Sentence        string          `json:"sentence"`
	TrimmedSentence string          `json:"trimmedSentence,omitempty"`
	Context         string          `json:"context,omitempty"`
	SourceURL       string          `json:"sourceUrl,omitempty"`
	HTML            string          `json:"html,omitempty"`
	Locator         *domain.Locator `json:"locator,omitempty"`
}

func (CaptureRequest) Action() string        { return ActionCapture }
func (ResolveLocatorRequest) Action() string { return ActionResolveLocator }
func (TranslationRequest) Action() string    { return ActionRequestTranslation }
func (CardCreationRequest) Action() string   { return ActionRequestCard }

func (CaptureRequest) message()        {}
func (ResolveLocatorRequest) message() {}
func (TranslationRequest) message()    {}
func (CardCreationRequest) message()   {}

func (r CaptureRequest) Validate() error {
	if strings.TrimSpace(r.HTML) == "" {
		return fmt.Errorf("%w: html is required", ErrInvalidMessage)
	}
	if r.ContextWindow != nil && *r.ContextWindow < 0 {
		return fmt.Errorf("%w: contextWindow must not be negative", ErrInvalidMessage)
	}
	return nil
}

func (r ResolveLocatorRequest) Validate() error {
	if strings.TrimSpace(r.HTML) == "" {
		return fmt.Errorf("%w: html is required", ErrInvalidMessage)
	}
	for _, s := range r.Locator.Path {
		if s.Tag == "" || s.Index < 1 {
			return fmt.Errorf("%w: bad locator step %s[%d]", ErrInvalidMessage, s.Tag, s.Index)
		}
	}
	return nil
}

func (r TranslationRequest) Validate() error {
	if r.Mode != ModeTranslate && r.Mode != ModeExplain {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidMessage, r.Mode)
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidMessage)
	}
	return nil
}

func (r CardCreationRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown card type %q", ErrInvalidMessage, r.Type)
	}
	if r.TrimmedSentence != "" && r.Locator != nil && r.HTML == "" {
		return fmt.Errorf("%w: html is required to check a trimmed sentence", ErrInvalidMessage)
	}
	return nil
}

// Decode parses and validates an envelope.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	var msg Message
	var err error
	switch env.Action {
	case ActionCapture:
		msg, err = decodePayload[CaptureRequest](env.Payload)
	case ActionResolveLocator:
		msg, err = decodePayload[ResolveLocatorRequest](env.Payload)
	case ActionRequestTranslation:
		msg, err = decodePayload[TranslationRequest](env.Payload)
	case ActionRequestCard:
		msg, err = decodePayload[CardCreationRequest](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode wraps msg in an envelope.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Action(), err)
	}
	return json.Marshal(Envelope{Action: msg.Action(), Payload: payload})
}

func decodePayload[T Message](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("%w: missing payload", ErrInvalidMessage)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return v, nil
}
