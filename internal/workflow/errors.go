package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for the terminal and conflict outcomes of the validation
// workflow. Handlers map these to HTTP statuses.
var (
	// ErrNotFound means the document id does not resolve. Terminal, no retry.
	ErrNotFound = errors.New("document not found")
	// ErrExpired means the validity/due date has passed. Terminal.
	ErrExpired = errors.New("document expired")
	// ErrConflict means a conditional transition matched zero rows because a
	// concurrent request already applied it.
	ErrConflict = errors.New("document was modified concurrently")
)

// ValidationError is malformed client input: recoverable, blocks only the
// submitted action.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ServiceError is a transient failure of a collaborator (store write,
// checkout session creation). The user may retry; the workflow does not.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ReconciliationError means the payment processor confirmed payment but the
// store write recording it failed: money has moved, the document is not
// marked paid. Must never be presented as a generic failure.
type ReconciliationError struct {
	SessionID string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment received (session %s) but confirmation is pending: %v", e.SessionID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
