package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igunfollowers/pkg/config"
	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// cli holds the global flags and the streams every command talks to
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile            string
	logLevel              string
	verbose               bool
	noColor               bool
	sessionsDir           string
	encryptSessions       bool
	notifications         bool
	maxConnectionAttempts int

	// cfg is the resolved configuration once a command has loaded it
	cfg *config.Config

	// notifier replaces the platform notification sender, for tests
	notifier ui.NotificationSender
}

// newRootCmd builds the command tree. The root command runs a check, so
// `igunfollowers alice` and `igunfollowers check alice` are the same.
func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "igunfollowers [username]",
		Short: "Find the Instagram accounts that don't follow you back",
		Long: `igunfollowers logs into your Instagram account, fetches your followers
and the accounts you follow, and lists everyone you follow who does not
follow you back.

Login sessions are stored per user in the sessions directory and reused
on the next run while Instagram still accepts them.`,
		Example: `  # Prompt for the username
  igunfollowers

  # Check a specific account
  igunfollowers alice`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runCheck,
	}

	rootCmd.SetIn(c.in)
	rootCmd.SetOut(c.out)
	rootCmd.SetErr(c.errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (default is ./.igunfollowers.yaml or ~/.config/igunfollowers/config.yaml)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error, disabled)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log everything (same as --log-level debug)")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&c.sessionsDir, "sessions-dir", "", "directory holding saved login sessions (default ./sessions)")
	flags.BoolVar(&c.encryptSessions, "encrypt-sessions", false, "encrypt saved sessions with a passphrase from the system keychain")
	flags.BoolVar(&c.notifications, "notifications", false, "send a desktop notification when the report is ready")
	flags.IntVar(&c.maxConnectionAttempts, "max-connection-attempts", 1, "attempts per request before giving up on connection errors")

	rootCmd.SetVersionTemplate(`igunfollowers {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newCheckCmd(c))
	rootCmd.AddCommand(newSessionCmd(c))
	rootCmd.AddCommand(newConfigCmd(c))

	return rootCmd
}

// changedFlags returns the global flags the user actually set, keyed the
// way config.MergeCommandLineFlags expects
func (c *cli) changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("sessions-dir") {
		flags["sessions-dir"] = c.sessionsDir
	}
	if set.Changed("encrypt-sessions") {
		flags["encrypt-sessions"] = c.encryptSessions
	}
	if set.Changed("log-level") {
		flags["log-level"] = c.logLevel
	} else if c.verbose {
		flags["log-level"] = "debug"
	}
	if set.Changed("no-color") {
		flags["no-color"] = c.noColor
	}
	if set.Changed("notifications") {
		flags["notifications"] = c.notifications
	}
	if set.Changed("max-connection-attempts") {
		flags["max-connection-attempts"] = c.maxConnectionAttempts
	}

	return flags
}

// loadConfig resolves the configuration and initializes the global logger
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configFile, c.changedFlags(cmd))
	if err != nil {
		return nil, err
	}

	if err := logger.InitializeWithWriter(&cfg.Logging, c.errOut); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.cfg = cfg

	logger.LogComponentStart(logger.GetLogger(), cmd.Name(), map[string]interface{}{
		"sessions_dir": cfg.Session.Directory,
		"encrypt":      cfg.Session.Encrypt,
		"base_url":     cfg.Instagram.BaseURL,
		"attempts":     cfg.Instagram.MaxConnectionAttempts,
	})

	return cfg, nil
}

// console builds the terminal output for cfg
func (c *cli) console(cfg *config.Config) *ui.Console {
	return ui.NewConsole(c.out, c.errOut, cfg.UI.ColorEnabled)
}

// colorEnabled decides coloring for output printed outside a command, such
// as the final error line. Before the configuration is loaded only
// --no-color and NO_COLOR apply.
func (c *cli) colorEnabled() bool {
	if c.cfg != nil {
		return c.cfg.UI.ColorEnabled
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return !c.noColor
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut}
	return c.execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	rootCmd := newRootCmd(c)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.NewConsole(c.out, c.errOut, c.colorEnabled()).Error("%s", errorMessage(err))
		return 1
	}
	return 0
}

// Execute runs the command line and exits with its status
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
