package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failure modes surfaced by the treasury engine. The
// kind is stable across error-message wording changes so callers can branch
// on behavior (e.g. retry NotFound differently than PolicyViolation).
type ErrorKind string

const (
	// ErrPermissionDenied marks a caller that is not authorized for the
	// action it attempted (e.g. a non-signer creating a proposal).
	ErrPermissionDenied ErrorKind = "permission_denied"
	// ErrInvalidArgument marks malformed or out-of-range caller input.
	ErrInvalidArgument ErrorKind = "invalid_argument"
	// ErrNotFound marks a lookup for a proposal or emergency action that does
	// not exist.
	ErrNotFound ErrorKind = "not_found"
	// ErrInvalidState marks an operation attempted against a proposal or
	// treasury in a state that forbids it (terminal status, not frozen, ...).
	ErrInvalidState ErrorKind = "invalid_state"
	// ErrPolicyViolation marks a rejection raised by the policy set.
	ErrPolicyViolation ErrorKind = "policy_violation"
	// ErrRuntimeFault marks a runtime precondition failure outside the
	// policy set: a frozen treasury, an emergency cooldown, insufficient
	// emergency signatures.
	ErrRuntimeFault ErrorKind = "runtime_fault"
)

// Error is the uniform error type returned by the treasury and policy
// packages. PolicyID is populated only for ErrPolicyViolation.
type Error struct {
	Kind     ErrorKind
	Message  string
	PolicyID string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.PolicyID != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Kind, e.PolicyID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is allows errors.Is(err, &Error{Kind: ErrNotFound}) style matching on kind
// alone, ignoring message and policy id.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || other == nil {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionDenied builds an ErrPermissionDenied error.
func NewPermissionDenied(format string, args ...interface{}) *Error {
	return newError(ErrPermissionDenied, format, args...)
}

// NewInvalidArgument builds an ErrInvalidArgument error.
func NewInvalidArgument(format string, args ...interface{}) *Error {
	return newError(ErrInvalidArgument, format, args...)
}

// NewNotFound builds an ErrNotFound error.
func NewNotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, format, args...)
}

// NewInvalidState builds an ErrInvalidState error.
func NewInvalidState(format string, args ...interface{}) *Error {
	return newError(ErrInvalidState, format, args...)
}

// NewRuntimeFault builds an ErrRuntimeFault error.
func NewRuntimeFault(format string, args ...interface{}) *Error {
	return newError(ErrRuntimeFault, format, args...)
}

// NewPolicyViolation builds an ErrPolicyViolation error carrying the
// offending policy's identifier alongside the human-readable reason.
func NewPolicyViolation(policyID, format string, args ...interface{}) *Error {
	err := newError(ErrPolicyViolation, format, args...)
	err.PolicyID = policyID
	return err
}

// KindOf extracts the ErrorKind from err, returning ok=false if err is not
// (or does not wrap) a *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return "", false
	}
	return e.Kind, true
}
