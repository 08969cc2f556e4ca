// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed configuration, bad prices, warm-up
//   - Data/Resource errors (200-299): Bar feed and result writer failures
//   - Option resolution errors (300-399): Expiry selection, pricing and strikes
//   - Position management errors (500-599): State machine and ledger violations
//   - Backtest errors (600-699): Engine setup and run errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidConfiguration, "cutoff must be after entry floor")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeNoValidExpiry) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrNoValidExpiry)
// holds regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// Sentinels for errors that callers recover from.
var (
	ErrNoValidExpiry    = New(ErrCodeNoValidExpiry, "no valid expiry")
	ErrPriceUnavailable = New(ErrCodePriceUnavailable, "option price unavailable")
)

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientWarmupError is returned when an indicator is queried before it has
// seen enough bars to produce a value.
type InsufficientWarmupError struct {
	Required int    // Bars needed before the indicator is ready
	Actual   int    // Bars seen so far
	Name     string // Indicator name
}

// NewInsufficientWarmupError creates a new InsufficientWarmupError.
func NewInsufficientWarmupError(name string, required, actual int) *InsufficientWarmupError {
	return &InsufficientWarmupError{
		Required: required,
		Actual:   actual,
		Name:     name,
	}
}

// Error implements the error interface.
func (e *InsufficientWarmupError) Error() string {
	return fmt.Sprintf("[%d] %s warming up: %d of %d bars", ErrCodeInsufficientWarmup, e.Name, e.Actual, e.Required)
}

// IsInsufficientWarmupError checks if an error is an InsufficientWarmupError.
// It uses errors.As to check the error chain.
func IsInsufficientWarmupError(err error) bool {
	var warmupErr *InsufficientWarmupError

	return errors.As(err, &warmupErr)
}
