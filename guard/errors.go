package guard

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrResourceNotFound indicates a handle's key is stale or was never issued.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceKilled indicates a warden's resource has been terminated.
	ErrResourceKilled = errors.New("resource killed")

	// ErrRegistryClosed indicates the registry no longer accepts registrations.
	ErrRegistryClosed = errors.New("registry closed")
)

// ErrorCode provides structured error classification.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a stale or unknown handle.
	ErrCodeNotFound ErrorCode = "RESOURCE_NOT_FOUND"

	// ErrCodeKilled indicates a terminated single-resource warden.
	ErrCodeKilled ErrorCode = "RESOURCE_KILLED"

	// ErrCodeClosed indicates a closed registry.
	ErrCodeClosed ErrorCode = "REGISTRY_CLOSED"

	// ErrCodeInternalError indicates an unclassified error.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// GuardError provides detailed error information for recoverable failures.
// Violations are never modeled as errors; they are routed to the Discipline.
type GuardError struct {
	// Op is the operation that failed.
	Op string

	// Action is the caller-supplied action label, if any.
	Action string

	// Err is the underlying sentinel error.
	Err error

	// Code is the structured error code.
	Code ErrorCode

	// Details provides human-readable details.
	Details string
}

// Error returns the error message.
func (e *GuardError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Action, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *GuardError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *GuardError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Error constructors for consistent error creation.

// NewNotFoundError creates a stale-handle error.
func NewNotFoundError(op, action string) error {
	return &GuardError{
		Op:     op,
		Action: action,
		Err:    ErrResourceNotFound,
		Code:   ErrCodeNotFound,
	}
}

// NewKilledError creates a terminated-resource error for the warden form.
func NewKilledError(op, action string) error {
	return &GuardError{
		Op:     op,
		Action: action,
		Err:    ErrResourceKilled,
		Code:   ErrCodeKilled,
	}
}

// NewClosedError creates a closed-registry error.
func NewClosedError(op string) error {
	return &GuardError{
		Op:      op,
		Err:     ErrRegistryClosed,
		Code:    ErrCodeClosed,
		Details: "registry no longer accepts registrations",
	}
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var guardErr *GuardError
	if errors.As(err, &guardErr) {
		return guardErr.Code
	}
	return ErrCodeInternalError
}
