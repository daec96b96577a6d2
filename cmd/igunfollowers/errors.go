package main

import (
	"errors"
	"fmt"

	"igunfollowers/pkg/auth"
	"igunfollowers/pkg/followback"
)

// errorMessage turns a command failure into the line printed on stderr
func errorMessage(err error) string {
	var notFound *followback.ProfileNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("❌ Error: Profile '@%s' doesn't exist", notFound.Username)
	}

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.ErrInvalidTwoFactorCode:
			return "❌ Invalid 2FA code."
		case auth.ErrTwoFactorFailed:
			return fmt.Sprintf("❌ 2FA login failed: %v", authErr.Cause)
		case auth.ErrIncorrectPassword:
			return "❌ Incorrect password."
		case auth.ErrLoginFailed:
			return fmt.Sprintf("❌ Login failed: %v", authErr.Cause)
		}
	}

	return fmt.Sprintf("❌ Unexpected error: %v", err)
}
