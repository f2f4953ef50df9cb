package errors

import (
	stderrors "errors"
	"fmt"
)

// Failure codes for the alert lifecycle. Validation and illegal-transition
// failures are detected locally, before any store round-trip.
const (
	CodeValidation        = 1001
	CodeStoreUnavailable  = 1002
	CodeIllegalTransition = 1003
	CodeNotFound          = 1004
)

// Error is a coded error carried across the store and lifecycle layers.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// WithCode creates a new coded error.
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCodef creates a new coded error with a formatted message.
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err under a coded error. Returns nil for a nil err.
func Wrap(code int, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// GetCode returns the code of err, unwrapping as needed, or 0.
func GetCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code int) bool {
	return GetCode(err) == code
}

// GetMessage returns the message of err, or its Error() text.
func GetMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Cause returns the innermost wrapped error.
func Cause(err error) error {
	for err != nil {
		var e *Error
		if stderrors.As(err, &e) && e.Err != nil {
			err = e.Err
			continue
		}
		return err
	}
	return err
}
