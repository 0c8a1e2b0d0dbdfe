package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies application errors
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource or taxonomy match was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates invalid caller input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates a failure of an external collaborator
	// (catalog database, metadata source, search engine)
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is (or wraps) a not-found AppError.
// Resolver callers use this to tell "no taxonomy match" apart from hard
// failures of the metadata source.
func IsNotFound(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal when err is
// not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
