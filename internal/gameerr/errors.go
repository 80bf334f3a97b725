// Package gameerr defines the non-fatal error taxonomy returned by rejected
// game operations.
package gameerr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable rejection category.
type Code string

const (
	// CodeConfigMissing marks a referenced hero, stage, loot table, recipe or
	// item id that does not resolve.
	CodeConfigMissing Code = "config_missing"
	// CodePreconditionFailed marks an operation whose requirements are not met
	// (materials, sockets, item location, upgrade cap).
	CodePreconditionFailed Code = "precondition_failed"
	// CodeCorruptSave marks a persisted payload that cannot be restored.
	CodeCorruptSave Code = "corrupt_save"
	// CodeExhaustedContent marks a wave with no enemy available or no further stage.
	CodeExhaustedContent Code = "exhausted_content"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates a domain error carrying metadata for the host to render.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from err, or "" when err is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrConfigMissing      = New(CodeConfigMissing, "configuration missing")
	ErrPreconditionFailed = New(CodePreconditionFailed, "precondition not met")
	ErrCorruptSave        = New(CodeCorruptSave, "corrupt save")
	ErrExhaustedContent   = New(CodeExhaustedContent, "content exhausted")
)
