package domain

import (
	"errors"
	"strings"
)

// Error kinds surfaced by the product service. Callers match them with errors.Is;
// the wrapped text is safe to show to API clients.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrValidation = errors.New("invalid argument")
)

// Error is a domain error of a given kind with a message meant for API clients
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the kind, so errors.Is(err, ErrNotFound) works on wrapped errors
func (e *Error) Unwrap() error {
	return e.Kind
}

// ValidationError lists field-level problems as "field: message" strings
type ValidationError struct {
	Fields []string
}

// NewValidationError builds a ValidationError from "field: message" strings
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
