package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error surfaced by the client or the view model
// matches exactly one of the first four through errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuth          = errors.New("authentication required")
	ErrConflict      = errors.New("resource already exists")
	ErrNetwork       = errors.New("network error")
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrNotFound narrows ErrNetwork for a 404, so errors.Is matches both
	ErrNotFound error = &narrowedKind{msg: "resource not found", kind: ErrNetwork}
)

type narrowedKind struct {
	msg  string
	kind error
}

func (k *narrowedKind) Error() string { return k.msg }

func (k *narrowedKind) Unwrap() error { return k.kind }

// FieldError describes a single rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by local pre-flight checks, and by the
// collaborator when it rejects a payload with 400/422.
type ValidationError struct {
	Fields []FieldError
	Detail string
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s", ErrValidation, e.Detail)
		}
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// APIError is a failure reported by (or while talking to) the remote collaborator
type APIError struct {
	Kind   error
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying transport error
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// IsAuth reports whether err means the credential is missing, expired or rejected
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
