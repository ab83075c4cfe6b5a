package models

import "fmt"

// Typed failure taxonomy shared by services, handlers and the client.
// Handlers translate these into HTTP statuses; the client maps statuses
// back into the same types so callers can errors.As on either side.

// ValidationError means the input was malformed or missing a required
// field. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means the referenced event, member or team does not exist.
// Msg carries a server-rendered message when the error crossed the wire;
// locally-raised instances set Resource and ID instead.
type NotFoundError struct {
	Resource string
	ID       string
	Msg      string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthorizationError means the acting member lacks the admin/captain
// privilege required by the mutation.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// InvalidStateError means the target record cannot accept the mutation,
// e.g. appending a schedule entry to a single-game event.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// ConflictError means a concurrent mutation invalidated an assumption.
// Safe to retry once with fresh state.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// TransientNetworkError wraps a transport failure reaching the store.
// Safe to retry with backoff; the client rolls back its prediction once
// retries are exhausted.
type TransientNetworkError struct {
	Cause error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("store unreachable: %v", e.Cause)
}

func (e *TransientNetworkError) Unwrap() error { return e.Cause }
