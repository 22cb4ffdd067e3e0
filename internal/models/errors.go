package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrDraftLocked       = errors.New("draft is locked after question generation")
	ErrSessionUnusable   = errors.New("session is not usable")
	ErrAlreadyCommitted  = errors.New("already committed")
	ErrBusy              = errors.New("another operation is in progress for this draft")
)

// ValidationError indicates missing or malformed operator input. No network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// InsufficientCreditsError indicates the balance cannot cover the interview cost
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// CategoryGenerationError aborts an orchestration run for the remaining categories
type CategoryGenerationError struct {
	CategoryID string
	Err        error
}

func (e *CategoryGenerationError) Error() string {
	return fmt.Sprintf("failed to generate questions for category %s: %v", e.CategoryID, e.Err)
}

func (e *CategoryGenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates a commit failed; the in-memory draft is retained for retry
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SessionIssuanceError is recorded for a candidate whose session could not be created
type SessionIssuanceError struct {
	AssociationID string
	Email         string
	Err           error
}

func (e *SessionIssuanceError) Error() string {
	return fmt.Sprintf("failed to issue session for %s: %v", e.Email, e.Err)
}

func (e *SessionIssuanceError) Unwrap() error {
	return e.Err
}

// NewValidationError is a shorthand used by the workflow and orchestrator
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
