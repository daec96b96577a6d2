// Package followback compares the accounts a user follows with the
// accounts following them and reports who does not follow back.
package followback
