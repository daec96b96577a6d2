package session

import (
	"time"
)

// Cookie names Instagram uses for an authenticated web session
const (
	CookieSessionID = "sessionid"
	CookieCSRFToken = "csrftoken"
	CookieUserID    = "ds_user_id"
	CookieDeviceID  = "ig_did"
	CookieMachineID = "mid"
)

// Session is the persisted authentication state of one Instagram account
type Session struct {
	Username  string            `json:"username"`
	UserID    string            `json:"user_id"`
	Cookies   map[string]string `json:"cookies"`
	CreatedAt time.Time         `json:"created_at"`
}

// New creates a session for username holding a copy of cookies
func New(username, userID string, cookies map[string]string) *Session {
	s := &Session{
		Username:  username,
		UserID:    userID,
		Cookies:   make(map[string]string, len(cookies)),
		CreatedAt: time.Now().UTC(),
	}
	for k, v := range cookies {
		s.Cookies[k] = v
	}
	return s
}

// Authenticated reports whether the session carries a session id cookie
func (s *Session) Authenticated() bool {
	return s != nil && s.Cookies[CookieSessionID] != ""
}
