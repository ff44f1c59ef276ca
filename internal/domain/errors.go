package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned for missing, collapsed or oversized selections.
	ErrEmptySelection = errors.New("selection is empty or not a word/phrase")
	// ErrAnchorNotFound means no text container holds the selection.
	ErrAnchorNotFound = errors.New("no text container found for selection")
	// ErrLocatorStale means a locator no longer resolves in the current document.
	ErrLocatorStale = errors.New("locator no longer resolves")
	// ErrServiceUnavailable means a collaborator is not configured.
	ErrServiceUnavailable = errors.New("service not configured")
	// ErrInvalidInput is returned when user-supplied data fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ExternalServiceError wraps a failure of a translation, generative-text
// or card-store collaborator. These are never retried automatically.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
