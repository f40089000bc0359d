package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned or wrapped copies
// compare equal to the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Session and authentication errors.
var (
	ErrDuplicateIdentity      = New("DUPLICATE_IDENTITY", http.StatusBadRequest, "Email already registered")
	ErrInvalidCredentials     = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Invalid credentials")
	ErrInvalidToken           = New("INVALID_TOKEN", http.StatusUnauthorized, "Invalid or expired token")
	ErrInvalidRefreshToken    = New("INVALID_REFRESH_TOKEN", http.StatusUnauthorized, "Invalid refresh token")
	ErrAuthenticationRequired = New("AUTHENTICATION_REQUIRED", http.StatusUnauthorized, "Authentication required")
	ErrAuthenticationFailed   = New("AUTHENTICATION_FAILED", http.StatusUnauthorized, "Authentication failed")
)

// Predefined errors for common scenarios.
var (
	ErrEmailInUse = New("EMAIL_IN_USE", http.StatusBadRequest, "Email already in use")
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
