package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint, most importantly the payments.transaction_id index.
	ErrDuplicate = errors.New("duplicate record")
)

// ValidationError rejects user input (content guard, amount bounds,
// task gating). Returned as a 400 and never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError creates a ValidationError with a user-facing reason.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError rejects an operation the current user may not perform
// (wrong role, not the poster/worker of the job). Fatal to the request.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not allowed: " + e.Reason
}

// NewAuthorizationError creates an AuthorizationError.
func NewAuthorizationError(format string, args ...any) error {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

// GatewayRejected is a permanent refusal from the payment processor:
// invalid payment method, disabled account. Surfaced verbatim to the user,
// never retried.
type GatewayRejected struct {
	Code    string
	Message string
}

func (e *GatewayRejected) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment rejected (%s): %s", e.Code, e.Message)
	}
	return "payment rejected: " + e.Message
}

// GatewayError is a transient processor or network failure. The caller may
// retry; the system itself does not.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ReconciliationConflict marks a webhook event that references a job or
// payment we cannot resolve. Logged, never fails the webhook response.
type ReconciliationConflict struct {
	TransactionID string
	Message       string
}

func (e *ReconciliationConflict) Error() string {
	return fmt.Sprintf("reconciliation conflict for %s: %s", e.TransactionID, e.Message)
}
