package authsession

import (
	"errors"
	"fmt"
)

// ErrorCode represents session error categories.
type ErrorCode string

const (
	ErrCodeDecode        ErrorCode = "decode_error"
	ErrCodeExpired       ErrorCode = "session_expired"
	ErrCodeMissingData   ErrorCode = "missing_data"
	ErrCodeProvider      ErrorCode = "provider_error"
	ErrCodeForbidden     ErrorCode = "forbidden"
	ErrCodeStorage       ErrorCode = "storage_error"
	ErrCodeInvalidConfig ErrorCode = "invalid_config"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeDecode:        "Malformed token",
	ErrCodeExpired:       "Session expired",
	ErrCodeMissingData:   "No stored session",
	ErrCodeProvider:      "Identity provider error",
	ErrCodeForbidden:     "Forbidden",
	ErrCodeStorage:       "Storage failure",
	ErrCodeInvalidConfig: "Invalid configuration",
}

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrDecode      = &Error{Code: ErrCodeDecode}
	ErrExpired     = &Error{Code: ErrCodeExpired}
	ErrMissingData = &Error{Code: ErrCodeMissingData}
	ErrProvider    = &Error{Code: ErrCodeProvider}
	ErrForbidden   = &Error{Code: ErrCodeForbidden}
	ErrStorage     = &Error{Code: ErrCodeStorage}
)

// Error wraps session errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the error code, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnauthenticated reports whether err means the caller must log in again.
func IsUnauthenticated(err error) bool {
	switch CodeOf(err) {
	case ErrCodeDecode, ErrCodeExpired, ErrCodeMissingData, ErrCodeProvider:
		return true
	}
	return false
}
