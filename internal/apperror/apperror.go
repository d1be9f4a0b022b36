// Package apperror implements the assistant's error taxonomy.
//
// Errors are classified by Kind, not by concrete type, so callers can
// branch on "what should happen next" (fail-fast, retry locally, surface
// to the user, log and move on) without knowing which subsystem raised the
// error.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the response it demands from the caller.
type Kind string

const (
	// Config marks a missing or invalid configuration value. Fail-fast at
	// startup — a Config error must never be swallowed.
	Config Kind = "CONFIG"
	// Transport marks a network, subprocess, or serialisation failure
	// against an external collaborator. Recoverable locally (fallback,
	// reconnect, backend switch).
	Transport Kind = "TRANSPORT"
	// Application marks a documented failure reported by an external
	// collaborator (HTTP 4xx/5xx, MCP error object, SMTP rejection).
	// Surfaced to the caller as a failed ToolResult; never triggers a
	// transport-level fallback.
	Application Kind = "APPLICATION"
	// Policy marks an internal rule refusing an action. No tool is called;
	// the refusal is reported to the user directly.
	Policy Kind = "POLICY"
	// Cancelled marks a user- or deadline-initiated cancellation. Never
	// fatal.
	Cancelled Kind = "CANCELLED"
	// Internal marks an unexpected condition (invariant violation,
	// unhandled case). Logged, audit-trailed, surfaced with a generic
	// message.
	Internal Kind = "INTERNAL"
)

// Error is a classified, wrapped error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a classified error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an existing error, preserving it as the cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of returns the Kind of err if it is (or wraps) an *Error, and ok=true.
// Unclassified errors report Internal, ok=false.
func Of(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return Internal, false
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}
