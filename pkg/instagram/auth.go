package instagram

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"igunfollowers/pkg/errors"
	"igunfollowers/pkg/session"
)

var (
	// ErrNoTwoFactorPending is returned by TwoFactorLogin without a prior Login
	// that asked for a code.
	ErrNoTwoFactorPending = stderrors.New("no two-factor authentication pending")

	// ErrNotLoggedIn is returned by ExportSession before a successful login
	ErrNotLoggedIn = stderrors.New("client is not logged in")

	csrfPattern = regexp.MustCompile(`"csrf_token":"([^"]+)"`)

	// now is replaced in tests
	now = time.Now
)

// Login authenticates with username and password.
//
// When Instagram asks for a verification code the returned error has type
// two_factor_required and the client remembers the pending login for
// TwoFactorLogin. A wrong password yields bad_credentials and a security
// checkpoint yields checkpoint_required.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.twoFactor = nil

	if c.cookie(session.CookieDeviceID) == "" {
		c.setCookie(session.CookieDeviceID, strings.ToUpper(uuid.NewString()))
	}

	page, err := c.getPage(ctx, LoginPageEndpoint)
	if err != nil {
		return err
	}
	if c.cookie(session.CookieCSRFToken) == "" {
		m := csrfPattern.FindStringSubmatch(page)
		if m == nil {
			return errors.New(errors.ErrorTypeParsing, 0, "login page did not provide a CSRF token")
		}
		c.setCookie(session.CookieCSRFToken, m[1])
	}

	form := url.Values{}
	form.Set("enc_password", encPassword(password, now().Unix()))
	form.Set("username", username)
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")

	c.logger.DebugWithFields("submitting login", map[string]interface{}{
		"username": username,
	})

	var resp loginResponse
	if err := c.postForm(ctx, LoginEndpoint, form, &resp); err != nil {
		return err
	}

	if resp.TwoFactorRequired {
		if resp.TwoFactorInfo == nil || resp.TwoFactorInfo.Identifier == "" {
			return errors.New(errors.ErrorTypeParsing, http.StatusBadRequest, "two-factor challenge without identifier")
		}
		c.twoFactor = &twoFactorState{
			username:   username,
			identifier: resp.TwoFactorInfo.Identifier,
		}
		c.logger.InfoWithFields("two-factor authentication required", map[string]interface{}{
			"username": username,
		})
		return errors.New(errors.ErrorTypeTwoFactorRequired, 0, "two-factor authentication required")
	}

	if resp.CheckpointURL != "" {
		return errors.New(errors.ErrorTypeCheckpointRequired, 0, "checkpoint required, complete it in a browser: %s", resp.CheckpointURL)
	}

	if resp.Status != "ok" {
		if resp.Message != "" {
			if resp.User && resp.Authenticated != nil && !*resp.Authenticated {
				return errors.New(errors.ErrorTypeBadCredentials, 0, "wrong password")
			}
			return errors.New(errors.ErrorTypeAuth, 0, "login error: %q", resp.Message)
		}
		return errors.New(errors.ErrorTypeAuth, 0, "login error: %q status", resp.Status)
	}

	if resp.Authenticated == nil {
		return errors.New(errors.ErrorTypeAuth, 0, "login response lacks authentication status")
	}
	if !*resp.Authenticated {
		if resp.User {
			return errors.New(errors.ErrorTypeBadCredentials, 0, "wrong password")
		}
		return errors.New(errors.ErrorTypeAuth, 0, "user %s does not exist", username)
	}

	c.username = username
	c.userID = resp.UserID
	if c.userID == "" {
		c.userID = c.cookie(session.CookieUserID)
	}

	c.logger.InfoWithFields("logged in", map[string]interface{}{
		"username": username,
	})
	return nil
}

// TwoFactorLogin completes a login that is waiting for a verification code
func (c *Client) TwoFactorLogin(ctx context.Context, code string) error {
	if c.twoFactor == nil {
		return ErrNoTwoFactorPending
	}
	pending := c.twoFactor

	form := url.Values{}
	form.Set("username", pending.username)
	form.Set("verificationCode", strings.TrimSpace(code))
	form.Set("identifier", pending.identifier)

	var resp statusResponse
	if err := c.postForm(ctx, TwoFactorEndpoint, form, &resp); err != nil {
		return err
	}

	if resp.Status != "ok" {
		if resp.Message != "" {
			return errors.New(errors.ErrorTypeBadCredentials, 0, "2FA error: %s", resp.Message)
		}
		return errors.New(errors.ErrorTypeBadCredentials, 0, "2FA error: %q status", resp.Status)
	}

	c.twoFactor = nil
	c.username = pending.username
	c.userID = c.cookie(session.CookieUserID)

	c.logger.InfoWithFields("logged in with two-factor code", map[string]interface{}{
		"username": pending.username,
	})
	return nil
}

// ValidateSession asks Instagram who the session belongs to and returns
// that username.
func (c *Client) ValidateSession(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("edit", "true")

	var resp currentUserResponse
	if err := c.getJSON(ctx, CurrentUserEndpoint, query, &resp); err != nil {
		return "", err
	}
	if resp.User == nil || resp.User.Username == "" {
		return "", errors.New(errors.ErrorTypeAuth, 0, "session is not logged in")
	}

	c.username = resp.User.Username
	if pk := resp.User.PK.String(); pk != "" {
		c.userID = pk
	}
	return resp.User.Username, nil
}

// ExportSession captures the cookies of the logged-in account
func (c *Client) ExportSession() (*session.Session, error) {
	if c.username == "" {
		return nil, ErrNotLoggedIn
	}
	return session.New(c.username, c.userID, c.cookies()), nil
}

// ResetSession drops every cookie and the logged-in account, leaving the
// client as NewClient returned it
func (c *Client) ResetSession() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c.jar = jar
	c.httpClient.Jar = jar

	c.username = ""
	c.userID = ""
	c.twoFactor = nil
	return nil
}

// ImportSession loads previously exported cookies into the client
func (c *Client) ImportSession(s *session.Session) error {
	if !s.Authenticated() {
		return errors.New(errors.ErrorTypeAuth, 0, "stored session has no session id")
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for name, value := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)

	c.username = s.Username
	c.userID = s.UserID
	if c.userID == "" {
		c.userID = s.Cookies[session.CookieUserID]
	}
	c.twoFactor = nil
	return nil
}
