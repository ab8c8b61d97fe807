package types

import "errors"

// Error is the typed error carried across package boundaries. Code identifies
// the failure class, Err holds the underlying cause when there is one.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrValidation   = "validation_failed"
	ErrEncoding     = "encoding_failed"
	ErrMessageBuild = "message_build_failed"
	ErrQuote        = "quote_failed"
	ErrUpdate       = "update_failed"
	ErrExecution    = "execution_failed"
	ErrNotFound     = "payment_not_found"
	ErrConfig       = "config_invalid"
)

// NewError builds a typed error with just a code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds a typed error around an underlying cause.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the error code from err, walking the wrap chain.
// Returns an empty string for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
