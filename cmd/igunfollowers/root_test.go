package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igunfollowers/pkg/instagram"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Send(title, message string) error {
	r.messages = append(r.messages, title+": "+message)
	return nil
}

// cliEnv isolates a command run from the developer's environment and
// points it at the fake server
func cliEnv(t *testing.T, f *fakeInstagram) string {
	t.Helper()
	t.Setenv("IGUNFOLLOWERS_BASE_URL", f.server.URL)
	t.Setenv("IGUNFOLLOWERS_ENCRYPT_SESSIONS", "false")
	t.Setenv("IGUNFOLLOWERS_NOTIFICATIONS_ENABLED", "false")
	return filepath.Join(t.TempDir(), "sessions")
}

func runCLI(t *testing.T, stdin string, notifier *recordingNotifier, args ...string) cliResult {
	t.Helper()

	var out, errOut bytes.Buffer
	c := &cli{in: strings.NewReader(stdin), out: &out, errOut: &errOut}
	if notifier != nil {
		c.notifier = notifier
	}

	args = append(args, "--no-color", "--log-level", "disabled")
	code := c.execute(context.Background(), args)
	return cliResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

const aliceReport = `
🔍 Results for @alice:
• Followers: 2
• Following: 4
• Not following back: 2

🚫 Accounts not following you back:
1. c
2. z
`

func TestCheckFreshLogin(t *testing.T) {
	f := newFakeInstagram(t)
	dir := cliEnv(t, f)

	res := runCLI(t, "hunter2\n", nil, "alice", "--sessions-dir", dir)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "🔑 Enter password for @alice: ")
	assert.Contains(t, res.stdout, "🔑 Session saved to "+filepath.Join(dir, "session-alice"))
	assert.Contains(t, res.stdout, "⏳ Loading followers...\n⏳ Loading following...\n")
	assert.True(t, strings.HasSuffix(res.stdout, aliceReport), res.stdout)
	assert.Empty(t, res.stderr)

	info, err := os.Stat(filepath.Join(dir, "session-alice"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCheckReusesSavedSession(t *testing.T) {
	f := newFakeInstagram(t)
	dir := cliEnv(t, f)

	first := runCLI(t, "hunter2\n", nil, "check", "alice", "--sessions-dir", dir)
	require.Equal(t, 0, first.code, first.stderr)
	logins := f.hitCount(instagram.LoginEndpoint)

	second := runCLI(t, "", nil, "check", "@alice", "--sessions-dir", dir)

	require.Equal(t, 0, second.code, second.stderr)
	assert.Contains(t, second.stdout, "✅ Session loaded for @alice")
	assert.NotContains(t, second.stdout, "Enter password")
	assert.Equal(t, logins, f.hitCount(instagram.LoginEndpoint))
	assert.True(t, strings.HasSuffix(second.stdout, aliceReport))
}

func TestCheckReplacesCorruptedSession(t *testing.T) {
	f := newFakeInstagram(t)
	dir := cliEnv(t, f)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-alice"), []byte("{not json"), 0600))

	res := runCLI(t, "hunter2\n", nil, "alice", "--sessions-dir", dir)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "⚠️ Session load failed: ")
	assert.Contains(t, res.stderr, ". A new login is required.")
	assert.Contains(t, res.stdout, "🔑 Session saved to")

	data, err := os.ReadFile(filepath.Join(dir, "session-alice"))
	require.NoError(t, err)
	assert.Contains(t, string(data), testSessionID)
}

func TestCheckPromptsForUsername(t *testing.T) {
	f := newFakeInstagram(t)
	dir := cliEnv(t, f)

	res := runCLI(t, "\n   \nalice\nhunter2\n", nil, "--sessions-dir", dir)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "📝 Enter your Instagram username: ")
	assert.Equal(t, 2, strings.Count(res.stdout, "❌ Username cannot be empty"))
	assert.True(t, strings.HasSuffix(res.stdout, aliceReport))
}

func TestCheckEveryoneFollowsBack(t *testing.T) {
	f := newFakeInstagram(t)
	f.profiles["alice"] = testProfile{id: "42", followers: []string{"a", "b", "c"}, followees: []string{"b", "a"}}
	dir := cliEnv(t, f)
	notifier := &recordingNotifier{}

	res := runCLI(t, "hunter2\n", notifier, "alice", "--sessions-dir", dir, "--notifications")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "• Not following back: 0\n\n🎉 Everyone you follow follows you back!\n")
	assert.Equal(t, []string{"igunfollowers: @alice: Everyone you follow follows you back!"}, notifier.messages)
}

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fakeInstagram)
		args   []string
		stdin  string
		stderr string
	}{
		{
			name:   "incorrect password",
			args:   []string{"alice"},
			stdin:  "wrong\n",
			stderr: "❌ Incorrect password.\n",
		},
		{
			name:   "unknown user",
			args:   []string{"nobody"},
			stdin:  "secret\n",
			stderr: "❌ Login failed: ",
		},
		{
			name:   "invalid 2FA code",
			setup:  func(f *fakeInstagram) { f.twoFactorCode = "123456" },
			args:   []string{"alice"},
			stdin:  "hunter2\n000000\n",
			stderr: "❌ Invalid 2FA code.\n",
		},
		{
			name:   "2FA code never entered",
			setup:  func(f *fakeInstagram) { f.twoFactorCode = "123456" },
			args:   []string{"alice"},
			stdin:  "hunter2\n",
			stderr: "❌ 2FA login failed: ",
		},
		{
			name:   "profile not found",
			setup:  func(f *fakeInstagram) { f.passwords["bob"] = "pw" },
			args:   []string{"bob"},
			stdin:  "pw\n",
			stderr: "❌ Error: Profile '@bob' doesn't exist\n",
		},
		{
			name:   "no username on closed stdin",
			args:   []string{},
			stdin:  "",
			stderr: "❌ Unexpected error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeInstagram(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			dir := cliEnv(t, f)

			args := append(tt.args, "--sessions-dir", dir)
			res := runCLI(t, tt.stdin, nil, args...)

			assert.Equal(t, 1, res.code)
			assert.True(t, strings.HasPrefix(res.stderr, tt.stderr), res.stderr)
		})
	}
}

func TestCheckSucceedsWithTwoFactor(t *testing.T) {
	f := newFakeInstagram(t)
	f.twoFactorCode = "123456"
	dir := cliEnv(t, f)

	res := runCLI(t, "hunter2\n123456\n", nil, "alice", "--sessions-dir", dir)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "📱 2FA required. Enter code from your authenticator app.\n")
	assert.Contains(t, res.stdout, "Enter 2FA code: ")
	assert.True(t, strings.HasSuffix(res.stdout, aliceReport))
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("IGUNFOLLOWERS_BASE_URL", "not a url")

	res := runCLI(t, "", nil, "alice", "--sessions-dir", t.TempDir())

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "❌ Unexpected error: configuration validation failed")
}

func TestOutOfRangeConnectionAttempts(t *testing.T) {
	f := newFakeInstagram(t)
	dir := cliEnv(t, f)

	res := runCLI(t, "", nil, "alice", "--sessions-dir", dir, "--max-connection-attempts", "0")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "max connection attempts must be between 1 and 10")
	assert.Equal(t, 0, f.hitCount(instagram.LoginEndpoint))
}

func TestErrorColoring(t *testing.T) {
	t.Run("config file disables color", func(t *testing.T) {
		f := newFakeInstagram(t)
		dir := cliEnv(t, f)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("ui:\n  color_enabled: false\n"), 0600))

		c := &cli{in: strings.NewReader("wrong\n"), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
		code := c.execute(context.Background(), []string{"alice", "--config", configPath, "--sessions-dir", dir, "--log-level", "disabled"})

		assert.Equal(t, 1, code)
		require.NotNil(t, c.cfg)
		assert.False(t, c.colorEnabled())
	})

	t.Run("NO_COLOR before configuration loads", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		t.Setenv("IGUNFOLLOWERS_BASE_URL", "not a url")

		c := &cli{in: strings.NewReader(""), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
		code := c.execute(context.Background(), []string{"alice", "--sessions-dir", t.TempDir()})

		assert.Equal(t, 1, code)
		assert.Nil(t, c.cfg)
		assert.False(t, c.colorEnabled())
	})

	t.Run("color by default", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		require.NoError(t, os.Unsetenv("NO_COLOR"))

		c := &cli{}
		assert.True(t, c.colorEnabled())
	})
}

func TestChangedFlags(t *testing.T) {
	c := &cli{in: strings.NewReader(""), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	cmd := newRootCmd(c)
	require.NoError(t, cmd.ParseFlags([]string{"--verbose", "--sessions-dir", "/tmp/s", "--max-connection-attempts", "3"}))

	flags := c.changedFlags(cmd)

	assert.Equal(t, map[string]interface{}{
		"sessions-dir":            "/tmp/s",
		"log-level":               "debug",
		"max-connection-attempts": 3,
	}, flags)
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	c := &cli{in: strings.NewReader(""), out: &out, errOut: &bytes.Buffer{}}

	code := c.execute(context.Background(), []string{"--version"})

	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out.String(), "igunfollowers "+version))
}
