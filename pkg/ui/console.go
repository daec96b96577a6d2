package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusColor  = lipgloss.Color("#00FFFF")
	successColor = lipgloss.Color("#39FF14")
	warningColor = lipgloss.Color("#FFFF00")
	errorColor   = lipgloss.Color("#FF10F0")
)

// Console prints user-facing messages. Status lines go to out, warnings
// and errors go to errOut so they never mix with the report.
type Console struct {
	out    io.Writer
	errOut io.Writer
	color  bool

	statusStyle  lipgloss.Style
	successStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewConsole creates a Console. With color disabled every message is
// written exactly as formatted.
func NewConsole(out, errOut io.Writer, color bool) *Console {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)

	return &Console{
		out:          out,
		errOut:       errOut,
		color:        color,
		statusStyle:  outRenderer.NewStyle().Foreground(statusColor),
		successStyle: outRenderer.NewStyle().Foreground(successColor).Bold(true),
		warningStyle: errRenderer.NewStyle().Foreground(warningColor),
		errorStyle:   errRenderer.NewStyle().Foreground(errorColor).Bold(true),
	}
}

// Out returns the writer used for status lines and reports
func (c *Console) Out() io.Writer {
	return c.out
}

// Status prints a progress line
func (c *Console) Status(format string, args ...interface{}) {
	c.println(c.out, c.statusStyle, format, args...)
}

// Success prints a completion line
func (c *Console) Success(format string, args ...interface{}) {
	c.println(c.out, c.successStyle, format, args...)
}

// Warning prints a recoverable problem
func (c *Console) Warning(format string, args ...interface{}) {
	c.println(c.errOut, c.warningStyle, format, args...)
}

// Error prints a fatal problem
func (c *Console) Error(format string, args ...interface{}) {
	c.println(c.errOut, c.errorStyle, format, args...)
}

func (c *Console) println(w io.Writer, style lipgloss.Style, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.color {
		msg = style.Render(msg)
	}
	fmt.Fprintln(w, msg)
}
