package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"igunfollowers/pkg/instagram"
)

const (
	usernamePrompt  = "📝 Enter your Instagram username"
	emptyUsername   = "❌ Username cannot be empty"
	passwordPrompt  = "🔑 Enter password for @%s"
	twoFactorPrompt = "Enter 2FA code"
)

// ErrNoInput is returned when stdin is closed before an answer was given
var ErrNoInput = errors.New("no input: stdin was closed")

// Prompter asks the user for credentials on a terminal or a plain stream
type Prompter struct {
	reader   *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
}

// New creates a Prompter reading answers from in and writing prompts to out.
// Passwords are read without echo when in is a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.terminal = true
	}
	return p
}

// Username returns arg when it names an account, otherwise asks until a
// non-blank answer is given. A leading @ and trailing slashes are removed.
func (p *Prompter) Username(arg string) (string, error) {
	username := arg
	if username == "" {
		answer, err := p.ask(usernamePrompt)
		if err != nil {
			return "", err
		}
		username = answer
	}

	for instagram.SanitizeUsername(username) == "" {
		fmt.Fprintln(p.out, emptyUsername)
		answer, err := p.ask(usernamePrompt)
		if err != nil {
			return "", err
		}
		username = answer
	}

	return instagram.SanitizeUsername(username), nil
}

// Password asks for the password of username, hiding input on a terminal
func (p *Prompter) Password(username string) (string, error) {
	label := fmt.Sprintf(passwordPrompt, username)
	for {
		var (
			answer string
			err    error
		)
		if p.terminal {
			answer, err = p.askHidden(label)
		} else {
			answer, err = p.ask(label)
		}
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}

// TwoFactorCode asks for a verification code until a non-blank one is given
func (p *Prompter) TwoFactorCode() (string, error) {
	for {
		answer, err := p.ask(twoFactorPrompt)
		if err != nil {
			return "", err
		}
		if code := strings.TrimSpace(answer); code != "" {
			return code, nil
		}
	}
}

// ask prints label and reads one line, without its line ending
func (p *Prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		fmt.Fprintln(p.out)
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) askHidden(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	password, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(password), nil
}
