// Package ui prints user-facing terminal output and desktop notifications.
//
// Console separates progress lines (stdout) from warnings and errors
// (stderr) and colours them with lipgloss when enabled. Notifier wraps a
// platform NotificationSender and never fails the caller.
package ui
