package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igunfollowers/pkg/auth"
	"igunfollowers/pkg/config"
)

const defaultConfigPath = ".igunfollowers.yaml"

const exampleConfig = `# igunfollowers configuration file
#
# Every option can also be set with an environment variable prefixed with
# IGUNFOLLOWERS_, for example IGUNFOLLOWERS_SESSIONS_DIR. Command line flags
# override both.

# Instagram web client
instagram:
  base_url: "https://www.instagram.com"

  # Browser user agent sent with every request
  # user_agent: "Mozilla/5.0 ..."

  # Request timeout
  timeout: 30s

  # Attempts per request before a connection error is reported
  # Range: 1-10
  max_connection_attempts: 1

  # Accounts fetched per followers/following page
  # Range: 1-50
  page_size: 50

# Saved login sessions
session:
  # One file per account, named session-<username>
  directory: "./sessions"

  # Encrypt session files. The passphrase is read from
  # IGUNFOLLOWERS_PASSPHRASE or kept in the system keychain.
  encrypt: false

notifications:
  # Desktop notification when the report is ready
  enabled: false

ui:
  color_enabled: true

logging:
  # Log level: debug, info, warn, error, disabled
  level: "warn"

  # Log format: text, json
  format: "text"

  # Log file path (optional), written as JSON in addition to stderr
  file: ""
`

func newConfigCmd(c *cli) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage igunfollowers configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGUNFOLLOWERS_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.igunfollowers.yaml'
unless a different path is specified with the --config flag.`,
		Args: cobra.NoArgs,
		RunE: c.runConfigInit,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the configuration resolved from flags, environment variables,
the configuration file and default values.`,
		Args: cobra.NoArgs,
		RunE: c.runConfigShow,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility
  - Session passphrase availability when encryption is enabled`,
		Args: cobra.NoArgs,
		RunE: c.runConfigValidate,
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func (c *cli) runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := c.configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to overwrite)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Fprintf(c.out, "✅ Configuration file created: %s\n", configPath)
	fmt.Fprintln(c.out, "\nNext steps:")
	fmt.Fprintln(c.out, "1. Edit the configuration file")
	fmt.Fprintln(c.out, "2. Run 'igunfollowers config validate' to check it")
	fmt.Fprintln(c.out, "3. Run 'igunfollowers <username>'")
	return nil
}

func (c *cli) runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	console := c.console(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	console.Success("Current Configuration")
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, string(data))

	source := c.configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}

	fmt.Fprintln(c.out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(c.out, "1. Command line flags")
	fmt.Fprintf(c.out, "2. Environment variables (%s*)\n", config.EnvPrefix)
	fmt.Fprintf(c.out, "3. Configuration file: %s\n", source)
	fmt.Fprintln(c.out, "4. Default values")
	return nil
}

func (c *cli) runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	console := c.console(cfg)

	var problems []error
	if err := os.MkdirAll(cfg.Session.Directory, 0700); err != nil {
		problems = append(problems, fmt.Errorf("cannot create sessions directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if cfg.Session.Encrypt {
		if _, err := auth.SessionPassphrase(); err != nil {
			problems = append(problems, err)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration has errors: %w", errors.Join(problems...))
	}

	if cfg.Instagram.MaxConnectionAttempts > 1 {
		console.Warning("⚠️ Retrying requests %d times makes rate limiting by Instagram more likely", cfg.Instagram.MaxConnectionAttempts)
	}

	console.Success("Configuration is valid")
	fmt.Fprintln(c.out, "\nConfiguration summary:")
	fmt.Fprintf(c.out, "  Sessions directory: %s\n", cfg.Session.Directory)
	fmt.Fprintf(c.out, "  Encrypted sessions: %t\n", cfg.Session.Encrypt)
	fmt.Fprintf(c.out, "  Connection attempts: %d\n", cfg.Instagram.MaxConnectionAttempts)
	fmt.Fprintf(c.out, "  Page size: %d\n", cfg.Instagram.PageSize)
	fmt.Fprintf(c.out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
