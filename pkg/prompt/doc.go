// Package prompt asks for the username, password and two-factor code.
package prompt
