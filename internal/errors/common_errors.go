package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

// Reduction failures. Each one is terminal for the specimen being processed.
const (
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeColumnNotFound    ErrorType = "COLUMN_NOT_FOUND"
	ErrTypeMalformedData     ErrorType = "MALFORMED_DATA"
	ErrTypeEmptyValidRange   ErrorType = "EMPTY_VALID_RANGE"
	ErrTypeInsufficientData  ErrorType = "INSUFFICIENT_DATA_FOR_REGRESSION"
)

// Ambient failures around the reduction.
const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Context keys attached by the pipeline
const (
	ContextSpecimen = "specimen"
	ContextStage    = "stage"
	ContextRow      = "row"
	ContextColumn   = "column"
	ContextPath     = "path"
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
	prefix := fmt.Sprintf("[%s]", e.Type)
	if name, ok := e.Context[ContextSpecimen]; ok {
		prefix += fmt.Sprintf(" %v", name)
	}
	if stage, ok := e.Context[ContextStage]; ok {
		prefix += fmt.Sprintf(" (%v)", stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same type, so sentinel-style checks
// such as errors.Is(err, errors.ErrEmptyValidRange) work.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
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

// Sentinels for errors.Is. They carry no message and match any AppError of
// the same type.
var (
	ErrUnsupportedFormat = &AppError{Type: ErrTypeUnsupportedFormat}
	ErrColumnNotFound    = &AppError{Type: ErrTypeColumnNotFound}
	ErrMalformedData     = &AppError{Type: ErrTypeMalformedData}
	ErrEmptyValidRange   = &AppError{Type: ErrTypeEmptyValidRange}
	ErrInsufficientData  = &AppError{Type: ErrTypeInsufficientData}
	ErrValidation        = &AppError{Type: ErrTypeValidation}
)

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// Annotate attaches specimen and stage to the AppError in err's chain, or
// wraps a foreign error as a storage error.
func Annotate(err error, specimen, stage string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewAppError(ErrTypeStorage, "unexpected failure", err)
	}
	appErr.WithContext(ContextSpecimen, specimen).WithContext(ContextStage, stage)
	return appErr
}

// Helper functions for common error types

// NewUnsupportedFormatError reports a file extension the loader cannot read.
func NewUnsupportedFormatError(path, ext string) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat,
		fmt.Sprintf("unsupported file format %q", ext), nil).
		WithContext(ContextPath, path)
}

// NewColumnNotFoundError reports a selector that matched no column.
func NewColumnNotFoundError(role string, selector fmt.Stringer) *AppError {
	return NewAppError(ErrTypeColumnNotFound,
		fmt.Sprintf("%s column %s not found", role, selector), nil).
		WithContext(ContextColumn, selector.String())
}

// NewMalformedDataError reports a cell that is not a number. row is 1-based
// as shown by spreadsheet tools.
func NewMalformedDataError(row int, column string, value string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedData,
		fmt.Sprintf("row %d column %s: %q is not a number", row, column, value), cause).
		WithContext(ContextRow, row).
		WithContext(ContextColumn, column)
}

// NewEmptyValidRangeError reports that filtering removed every sample.
func NewEmptyValidRangeError(total int, threshold float64) *AppError {
	return NewAppError(ErrTypeEmptyValidRange,
		fmt.Sprintf("no sample of %d has force >= %g and displacement >= 0", total, threshold), nil)
}

// NewInsufficientDataError reports a regression input that cannot be fit.
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
