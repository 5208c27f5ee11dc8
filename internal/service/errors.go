package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pageza/foodgram/backend/internal/validation"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	// ErrAuthUnavailable means a token could not be checked because a backing store failed.
	ErrAuthUnavailable    = errors.New("authentication backend unavailable")
)

// ValidationError carries field-keyed messages back to the client as a 400.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func fieldError(field, msg string) *ValidationError {
	return NewValidationError().Add(field, msg)
}

func nonFieldError(msg string) *ValidationError {
	return fieldError(validation.NonFieldErrors, msg)
}

// Add appends msg to field.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// Merge copies all messages of fields into e.
func (e *ValidationError) Merge(fields map[string][]string) *ValidationError {
	for field, msgs := range fields {
		e.Fields[field] = append(e.Fields[field], msgs...)
	}
	return e
}

// Empty reports whether no message was recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns e, or nil when it holds no messages.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validateInput runs the binding rules of a request DTO for callers that bypass gin.
func validateInput(in interface{}) error {
	err := validation.Validate(in)
	if err == nil {
		return nil
	}
	if fields, ok := validation.FieldErrors(err); ok {
		return NewValidationError().Merge(fields)
	}
	return err
}
