package types

import "fmt"

// ErrorCode represents a query error code.
type ErrorCode string

// Error codes follow the W3C XQuery/XPath error namespace.
const (
	// XPST/XQST: static errors, raised before any item is pulled
	ErrSyntax            ErrorCode = "XPST0003"
	ErrDuplicateVariable ErrorCode = "XQST0103"

	// XPTY/FORG: dynamic type errors
	ErrTypeMismatch        ErrorCode = "XPTY0004"
	ErrInvalidBooleanValue ErrorCode = "FORG0006"

	// XPDY: dynamic evaluation errors
	ErrMissingBinding ErrorCode = "XPDY0002"
)

// Error represents a structured query error.
type Error struct {
	Code    ErrorCode
	Message string
	// Position is the 1-based source position the error refers to, or -1
	// for static errors that are not tied to an item.
	Position int64
	// Variable names the variable involved, without the leading "$".
	Variable string
	Err      error
}

// NewError creates a new query error.
func NewError(code ErrorCode, message string, position int64) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// NewStaticError creates an error that is not tied to a source position.
func NewStaticError(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Variable != "" {
		msg = fmt.Sprintf("$%s: %s", e.Variable, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithVariable adds variable information to the error.
func (e *Error) WithVariable(name string) *Error {
	e.Variable = name
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsStatic reports whether the error code belongs to the static error class.
func (e *Error) IsStatic() bool {
	return e.Code == ErrSyntax || e.Code == ErrDuplicateVariable
}

// CodeOf extracts the error code from err, or "" when err is not a *Error.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if qe, ok := err.(*Error); ok {
			return qe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
