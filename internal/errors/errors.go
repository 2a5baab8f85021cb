package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUnauthenticated indicates the session token is missing, invalid, or expired.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeInvalidCredentials indicates a rejected sign-in attempt.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeForbidden indicates the backend refused the request for the current identity.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeUnavailable indicates a transport failure or a 5xx from the backend.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeNotFound indicates a resource (e.g. a handoff ticket) was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable message, safe to show to the user
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Status is the backend HTTP status when the error came from a response (optional)
	Status int
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return New(ErrCodeUnauthenticated, message)
}

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials(message string) *AppError {
	return New(ErrCodeInvalidCredentials, message)
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// FromStatus maps a backend HTTP status and message to an AppError.
// An empty message falls back to a generic one for the category.
func FromStatus(status int, message string) *AppError {
	code := ErrCodeUnavailable
	switch {
	case status == 401:
		code = ErrCodeUnauthenticated
	case status == 403:
		code = ErrCodeForbidden
	case status == 404:
		code = ErrCodeNotFound
	case status == 400 || status == 422:
		code = ErrCodeValidation
	}
	if message == "" {
		message = defaultMessages[code]
	}
	return &AppError{Code: code, Message: message, Status: status}
}

//nolint:gochecknoglobals // static read-only lookup
var defaultMessages = map[ErrorCode]string{
	ErrCodeUnauthenticated:    "authentication required",
	ErrCodeInvalidCredentials: "invalid email or password",
	ErrCodeForbidden:          "access denied",
	ErrCodeUnavailable:        "service unavailable, please try again",
	ErrCodeNotFound:           "not found",
	ErrCodeValidation:         "invalid request",
	ErrCodeInternal:           "internal error",
}

// UserMessage returns a message suitable for display: the AppError message
// when err carries one, otherwise the generic message for code.
func UserMessage(err error, fallback ErrorCode) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return defaultMessages[fallback]
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsUnavailable checks if an error is an Unavailable error.
func IsUnavailable(err error) bool {
	return isCode(err, ErrCodeUnavailable)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
