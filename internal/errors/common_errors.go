package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork      ErrorType = "NETWORK"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypePrecondition ErrorType = "PRECONDITION"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewSchemaError reports required columns absent from a table.
func NewSchemaError(source string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("%s is missing required columns: %s", source, strings.Join(missing, ", ")), nil).
		WithContext("source", source).
		WithContext("missing_columns", missing)
}

// NewPreconditionError reports a condition that makes the run impossible to continue.
func NewPreconditionError(message string) *AppError {
	return NewAppError(ErrTypePrecondition, message, nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// SkipError records a file or sheet excluded from a stage. It is never fatal.
type SkipError struct {
	Source  string
	Reason  string
	Missing []string
}

// Error implements the error interface
func (e *SkipError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("skipped %s: %s (missing: %s)", e.Source, e.Reason, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("skipped %s: %s", e.Source, e.Reason)
}

// SkipReport accumulates skip errors for the end-of-stage report.
type SkipReport struct {
	result *multierror.Error
}

// Add records a skipped source.
func (r *SkipReport) Add(source, reason string, missing ...string) {
	r.result = multierror.Append(r.result, &SkipError{Source: source, Reason: reason, Missing: missing})
}

// Len returns the number of skipped sources.
func (r *SkipReport) Len() int {
	if r.result == nil {
		return 0
	}
	return r.result.Len()
}

// Skipped returns the recorded skips in insertion order.
func (r *SkipReport) Skipped() []*SkipError {
	if r.result == nil {
		return nil
	}
	out := make([]*SkipError, 0, len(r.result.Errors))
	for _, err := range r.result.Errors {
		var skip *SkipError
		if errors.As(err, &skip) {
			out = append(out, skip)
		}
	}
	return out
}

// Sources returns the sorted names of every skipped source.
func (r *SkipReport) Sources() []string {
	skipped := r.Skipped()
	names := make([]string, 0, len(skipped))
	for _, s := range skipped {
		names = append(names, s.Source)
	}
	sort.Strings(names)
	return names
}

// ErrorOrNil returns the combined error, or nil when nothing was skipped.
func (r *SkipReport) ErrorOrNil() error {
	return r.result.ErrorOrNil()
}
