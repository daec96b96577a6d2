// Package auth logs the Instagram client in.
//
// Manager.Login first tries the stored session for the account. When it is
// missing or no longer accepted it asks for the password (and a two-factor
// code if Instagram wants one), logs in and stores the new session.
// Interactive failures are returned as *Error so callers can tell a wrong
// password from a wrong code.
//
// Session files can be encrypted; the passphrase lives in the system
// keychain unless IGUNFOLLOWERS_PASSPHRASE is set.
package auth
