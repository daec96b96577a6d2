package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errs "igunfollowers/pkg/errors"
	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/session"
)

// Client is the part of the Instagram client the login flow drives
type Client interface {
	Login(ctx context.Context, username, password string) error
	TwoFactorLogin(ctx context.Context, code string) error
	ValidateSession(ctx context.Context) (string, error)
	ExportSession() (*session.Session, error)
	ImportSession(s *session.Session) error
	ResetSession() error
}

// SessionStore persists sessions between runs
type SessionStore interface {
	Path(username string) string
	Exists(username string) bool
	Load(username string) (*session.Session, error)
	Save(s *session.Session) error
	Delete(username string) error
}

// Prompter asks the user for secrets
type Prompter interface {
	Password(username string) (string, error)
	TwoFactorCode() (string, error)
}

// Console shows progress to the user. Status goes to stdout and Warning to
// stderr.
type Console interface {
	Status(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

// Manager gets a client into the logged-in state, reusing a stored session
// when it is still valid.
type Manager struct {
	client   Client
	store    SessionStore
	prompter Prompter
	console  Console
	logger   logger.Logger
}

// NewManager creates a login manager
func NewManager(client Client, store SessionStore, prompter Prompter, console Console, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		client:   client,
		store:    store,
		prompter: prompter,
		console:  console,
		logger:   log.WithField("component", "auth"),
	}
}

// Login returns nil once the client is authenticated as username.
// Failures of the interactive login are returned as *Error.
func (m *Manager) Login(ctx context.Context, username string) error {
	if m.store.Exists(username) {
		err := m.resume(ctx, username)
		if err == nil {
			m.console.Status("✅ Session loaded for @%s", username)
			return nil
		}
		if isTransient(err) {
			return fmt.Errorf("failed to validate stored session: %w", err)
		}

		m.console.Warning("⚠️ Session load failed: %v. A new login is required.", err)
		if derr := m.store.Delete(username); derr != nil {
			m.logger.WithError(derr).WarnWithFields("could not delete stale session", map[string]interface{}{
				"username": username,
			})
		}
		if err := m.client.ResetSession(); err != nil {
			return &Error{Kind: ErrLoginFailed, Cause: err}
		}
	}

	if err := m.interactiveLogin(ctx, username); err != nil {
		return err
	}

	m.persist(username)
	return nil
}

// resume loads the stored session into the client and checks it with Instagram
func (m *Manager) resume(ctx context.Context, username string) error {
	sess, err := m.store.Load(username)
	if err != nil {
		return err
	}
	if err := m.client.ImportSession(sess); err != nil {
		return err
	}

	owner, err := m.client.ValidateSession(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(owner, username) {
		return fmt.Errorf("session belongs to @%s", owner)
	}

	m.logger.DebugWithFields("stored session is valid", map[string]interface{}{
		"username": username,
	})
	return nil
}

func (m *Manager) interactiveLogin(ctx context.Context, username string) error {
	password, err := m.prompter.Password(username)
	if err != nil {
		return &Error{Kind: ErrLoginFailed, Cause: err}
	}

	err = m.client.Login(ctx, username, password)
	switch {
	case err == nil:
		return nil
	case errs.IsType(err, errs.ErrorTypeTwoFactorRequired):
		return m.twoFactor(ctx)
	case errs.IsType(err, errs.ErrorTypeBadCredentials):
		return &Error{Kind: ErrIncorrectPassword, Cause: err}
	default:
		return &Error{Kind: ErrLoginFailed, Cause: err}
	}
}

func (m *Manager) twoFactor(ctx context.Context) error {
	m.console.Status("📱 2FA required. Enter code from your authenticator app.")

	code, err := m.prompter.TwoFactorCode()
	if err != nil {
		return &Error{Kind: ErrTwoFactorFailed, Cause: err}
	}

	if err := m.client.TwoFactorLogin(ctx, code); err != nil {
		if errs.IsType(err, errs.ErrorTypeBadCredentials) {
			return &Error{Kind: ErrInvalidTwoFactorCode, Cause: err}
		}
		return &Error{Kind: ErrTwoFactorFailed, Cause: err}
	}
	return nil
}

// persist saves the fresh session; failing to do so is only a warning
func (m *Manager) persist(username string) {
	sess, err := m.client.ExportSession()
	if err == nil {
		err = m.store.Save(sess)
	}
	if err != nil {
		m.console.Warning("⚠️  Could not save session: %v", err)
		return
	}
	m.console.Status("🔑 Session saved to %s", m.store.Path(username))
}

// isTransient reports errors that say nothing about the session itself
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errs.IsRetryable(errs.TypeOf(err))
}
