package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"igunfollowers/pkg/logger"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=igunfollowers", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%s)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%s)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("igunfollowers").Show($toast)
	`, powerShellString(title), powerShellString(message))

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func powerShellString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// PlatformSender returns the sender for the running OS, or nil when the
// platform has none.
func PlatformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier sends desktop notifications when enabled. Delivery failures
// are logged and never surface to the caller.
type Notifier struct {
	sender  NotificationSender
	enabled bool
	logger  logger.Logger
}

// NewNotifier creates a Notifier. A nil sender disables delivery.
func NewNotifier(sender NotificationSender, enabled bool, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Notifier{
		sender:  sender,
		enabled: enabled && sender != nil,
		logger:  log,
	}
}

// Notify sends a notification if enabled
func (n *Notifier) Notify(title, message string) {
	if !n.enabled {
		return
	}
	if err := n.sender.Send(title, message); err != nil {
		n.logger.WarnWithFields("Desktop notification failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}
}

// NotifyReport announces a finished check
func (n *Notifier) NotifyReport(username string, notFollowingBack int) {
	var message string
	switch notFollowingBack {
	case 0:
		message = "Everyone you follow follows you back!"
	case 1:
		message = "1 account is not following you back"
	default:
		message = fmt.Sprintf("%d accounts are not following you back", notFollowingBack)
	}
	n.Notify(fmt.Sprintf("igunfollowers: @%s", username), message)
}
