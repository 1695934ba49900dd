package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidState indicates a lifecycle transition not permitted from the
// resource's current state.
var ErrInvalidState = errors.New("operation not permitted in current state")

// ErrConflict indicates a concurrent mutation detected by the lock or
// transaction layer.
var ErrConflict = errors.New("conflicting concurrent modification")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside a message and an
// optional wrapped cause, so repositories can report failures that
// handlers map programmatically.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that satisfies errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewConflictError creates an AppError that satisfies errors.Is(err, ErrConflict).
func NewConflictError(message string, err error) *AppError {
	if err == nil {
		err = ErrConflict
	} else {
		err = fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return &AppError{Code: 409, Message: message, Err: err}
}
