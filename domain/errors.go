package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeInvalid         ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeEventProcessing ErrorCode = "EVENT_PROCESSING"
	ErrCodeUnavailable     ErrorCode = "UNAVAILABLE"
	ErrCodeUnexpected      ErrorCode = "UNEXPECTED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal        ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
//
// Status and Body are only set for failures received from another service
// and are surfaced unchanged to the caller.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Status  int
	Body    string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewUpstreamError records a failed call to another service together with the
// status and body it answered with.
func NewUpstreamError(status int, body string, err error) *Error {
	return &Error{
		Code:    ErrCodeUnexpected,
		Message: fmt.Sprintf("upstream responded with status %d", status),
		Err:     err,
		Status:  status,
		Body:    body,
	}
}

// Common domain errors.
var (
	ErrProductNotFound = NewError(ErrCodeNotFound, "product not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden       = NewError(ErrCodeForbidden, "forbidden")
	ErrInvalidPayload  = NewError(ErrCodeBadRequest, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code of the outermost domain error, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ""
}

// InvalidProductID is returned for keys below 1.
func InvalidProductID(productID int) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf("Invalid productId: %d", productID))
}

// ValidateProductID rejects keys below 1.
func ValidateProductID(productID int) error {
	if productID < 1 {
		return InvalidProductID(productID)
	}
	return nil
}
