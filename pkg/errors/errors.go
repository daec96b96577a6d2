package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeRateLimit          ErrorType = "rate_limit"
	ErrorTypeAuth               ErrorType = "auth"
	ErrorTypeBadCredentials     ErrorType = "bad_credentials"
	ErrorTypeTwoFactorRequired  ErrorType = "two_factor_required"
	ErrorTypeCheckpointRequired ErrorType = "checkpoint_required"
	ErrorTypeParsing            ErrorType = "parsing"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeServerError        ErrorType = "server_error"
	ErrorTypeUnknown            ErrorType = "unknown"
)

// Error represents an Instagram API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("instagram %s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("instagram %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates an Error of the given type
func New(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown when there is none.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	var apiErr *Error
	return stderrors.As(err, &apiErr) && apiErr.Type == errorType
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
