// Package domain defines the manifest model, gateway ports, and errors
// for the governance reconciliation engine.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a probed remote entity does not exist. It is a
// control-flow signal for existence checks, not a failure.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// InvalidRoleError indicates the remote system rejected a role transition.
type InvalidRoleError struct {
	Message string
}

func (e *InvalidRoleError) Error() string { return e.Message }

// ValidationError indicates invalid input in a governance record.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RemoteError wraps any other remote-call failure with the operation that
// produced it. Remote errors are never retried here; the caller's outer
// invocation boundary is the retry unit.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *RemoteError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidRole creates an InvalidRoleError with a formatted message.
func ErrInvalidRole(format string, args ...interface{}) *InvalidRoleError {
	return &InvalidRoleError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrRemote wraps err as a RemoteError for the named remote operation.
func ErrRemote(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// IsDowngradeSignal reports whether a role-convergence error means the target
// role is not valid for the user's current state. The policy for such users
// is deletion rather than a partial downgrade.
func IsDowngradeSignal(err error) bool {
	var nf *NotFoundError
	var ir *InvalidRoleError
	return errors.As(err, &nf) || errors.As(err, &ir)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
