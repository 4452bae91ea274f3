// Package huberrors provides sentinel and custom error types for the application.
package huberrors

import "fmt"

// ErrNotFound represents a "not found" error.
// Use when a referenced resource (record, question, user, vector settings) doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when record, response, suggestion or vector input fails a dataset-schema check.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a ValidationError from a format string.
func NewValidationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrConflict is the sentinel for identity conflicts (duplicate external ids in a
// batch or against existing records, duplicate record ids in an update batch).
var ErrConflict = &ConflictError{}

// ConflictError is a sentinel error for resource conflicts.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is implements the error interface for error comparison.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}

// ErrNotReady is the sentinel for dataset state violations: record operations
// against a draft dataset, or schema mutations against a ready dataset.
var ErrNotReady = &NotReadyError{}

// NotReadyError is a sentinel error for dataset lifecycle violations.
type NotReadyError struct {
	Message string
}

// NewNotReadyError creates a NotReadyError with a custom message.
func NewNotReadyError(message string) *NotReadyError {
	return &NotReadyError{Message: message}
}

// Error implements the error interface.
func (e *NotReadyError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "dataset is not ready"
}

// Is implements the error interface for error comparison.
func (e *NotReadyError) Is(target error) bool {
	_, ok := target.(*NotReadyError)

	return ok
}
