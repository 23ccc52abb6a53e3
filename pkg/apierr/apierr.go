// Package apierr classifies the failures the gateway surfaces to callers.
//
// Rather than an exception-style hierarchy, every rejection is a tagged
// *Error carrying a Kind. Call sites decide policy per kind (HTTP status,
// retry hints, detail exposure) instead of matching on concrete types.
package apierr

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the error category surfaced to the transport layer.
type Kind int

const (
	// Unexpected is the catch-all for unclassified internal failures.
	Unexpected Kind = iota
	// Authorization covers missing or mismatched API keys.
	Authorization
	// RateLimited means the client's token bucket is exhausted.
	RateLimited
	// Validation covers blank fields and over-length inputs.
	Validation
	// SafetyViolation means the jailbreak screen flagged the input.
	SafetyViolation
	// Collaborator means a similarity-search or generation call failed.
	Collaborator
)

// String returns the client-facing category name for the kind.
func (k Kind) String() string {
	switch k {
	case Authorization:
		return "Unauthorized"
	case RateLimited:
		return "Too Many Requests"
	case Validation:
		return "Validation Error"
	case SafetyViolation:
		return "Bad Request"
	case Collaborator:
		return "Internal Server Error"
	default:
		return "Internal Server Error"
	}
}

// Error is a classified gateway failure.
type Error struct {
	Kind       Kind
	Message    string
	Details    []string      // field-level validation details, may be nil
	RetryAfter time.Duration // advisory delay for RateLimited, zero otherwise
	Err        error         // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a plain message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validationf creates a Validation error with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// ValidationDetails creates a Validation error carrying field-level details.
func ValidationDetails(message string, details ...string) *Error {
	return &Error{Kind: Validation, Message: message, Details: details}
}

// Safety creates a SafetyViolation error.
func Safety(message string) *Error {
	return &Error{Kind: SafetyViolation, Message: message}
}

// RateLimitedErr creates a RateLimited error with an advisory retry delay.
func RateLimitedErr(message string, retryAfter time.Duration) *Error {
	return &Error{Kind: RateLimited, Message: message, RetryAfter: retryAfter}
}

// CollaboratorErr wraps a failed external call (search or generation).
func CollaboratorErr(message string, err error) *Error {
	return &Error{Kind: Collaborator, Message: message, Err: err}
}

// KindOf extracts the Kind from err. Unclassified errors map to Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// AsError extracts the classified error from err, or wraps it as Unexpected.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Unexpected, Message: "internal error", Err: err}
}
