// Package dberrors classifies the engine's errors into the kinds named by
// spec.md §7, so callers can branch with errors.As instead of string
// matching, and every error still carries the wrapped cause via errors.Is.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind is the category of failure, matching spec.md §7's taxonomy.
type Kind int

const (
	// Database errors: corruption, invalid file, already-exists, does-not-exist.
	Database Kind = iota
	// Transaction errors: closed-DBO, closed-tx, tx-in-error, read-only
	// violation, write-lock denied, invalid-tupleid, unknown-column.
	Transaction
	// Query errors: unsupported predicate, column-does-not-exist,
	// index-lookup failure.
	Query
	// Validation errors: null where not allowed, type mismatch, vector
	// size mismatch, index-update failure.
	Validation
	// Storage errors: page-store failure, I/O, file-lock timeout,
	// page-id out of bounds, buffer-pool exhausted.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Database:
		return "database"
	case Transaction:
		return "transaction"
	case Query:
		return "query"
	case Validation:
		return "validation"
	case Storage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a classified, chainable error. Code is a short machine-readable
// tag ("corruption", "closed-tx", "invalid-tupleid", ...); Cause, if set,
// is reachable through errors.Unwrap/errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an unwrapped classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies an existing error without discarding it.
func Wrap(kind Kind, code string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: cause.Error(), Cause: cause}
}

// Wrapf is Wrap with a formatted message prefixed to the cause.
func Wrapf(kind Kind, code string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is, or wraps, a classified *Error of the given kind.
func Is(err error, kind Kind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}
