package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTwoFactorCode means Instagram rejected the verification code
	ErrInvalidTwoFactorCode = errors.New("invalid 2FA code")

	// ErrTwoFactorFailed means the two-factor step failed for another reason
	ErrTwoFactorFailed = errors.New("2FA login failed")

	// ErrIncorrectPassword means Instagram rejected the password
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrLoginFailed covers every other login failure
	ErrLoginFailed = errors.New("login failed")
)

// Error is a login failure. Kind is one of the sentinel errors above and
// Cause is what went wrong underneath.
type Error struct {
	Kind  error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
}

// Unwrap lets errors.Is match both the kind and the cause
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
