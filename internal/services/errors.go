package services

import (
	"errors"
	"strings"
)

var (
	// ErrConflict is returned when registering an email that is already taken.
	ErrConflict = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown accounts and wrong secrets.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned when the requested user or note does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the note.
	ErrForbidden = errors.New("not allowed")
	// ErrFederatedAccount is returned for password operations on federated accounts.
	ErrFederatedAccount = errors.New("account signs in with an external provider")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
