package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "IGUNFOLLOWERS_"

// Instagram web client defaults
const (
	DefaultBaseURL   = "https://www.instagram.com"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	DefaultAppID     = "936619743392459"
	DefaultPageSize  = 50

	// MaxPageSize is the largest page Instagram serves for friendship lists
	MaxPageSize = 50

	// MaxConnectionAttempts bounds the per-request attempt limit
	MaxConnectionAttempts = 10
)

// Config holds all configuration options for igunfollowers
type Config struct {
	// Instagram client settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Session persistence
	Session SessionConfig `yaml:"session" json:"session"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Terminal output
	UI UIConfig `yaml:"ui" json:"ui"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram client configuration
type InstagramConfig struct {
	BaseURL               string        `yaml:"base_url" json:"base_url"`
	UserAgent             string        `yaml:"user_agent" json:"user_agent"`
	AppID                 string        `yaml:"app_id" json:"app_id"`
	Timeout               time.Duration `yaml:"timeout" json:"timeout"`
	MaxConnectionAttempts int           `yaml:"max_connection_attempts" json:"max_connection_attempts"`
	PageSize              int           `yaml:"page_size" json:"page_size"`
}

// SessionConfig controls where login sessions are kept
type SessionConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Encrypt   bool   `yaml:"encrypt" json:"encrypt"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	ColorEnabled bool `yaml:"color_enabled" json:"color_enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:               DefaultBaseURL,
			UserAgent:             DefaultUserAgent,
			AppID:                 DefaultAppID,
			Timeout:               30 * time.Second,
			MaxConnectionAttempts: 1,
			PageSize:              DefaultPageSize,
		},
		Session: SessionConfig{
			Directory: "./sessions",
			Encrypt:   false,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		UI: UIConfig{
			ColorEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Instagram.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.Instagram.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "APP_ID"); v != "" {
		c.Instagram.AppID = v
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Instagram.Timeout = d
	}
	if v := os.Getenv(EnvPrefix + "MAX_CONNECTION_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_CONNECTION_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Instagram.MaxConnectionAttempts = n
	}
	if v := os.Getenv(EnvPrefix + "PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPAGE_SIZE: %w", EnvPrefix, err)
		}
		c.Instagram.PageSize = n
	}

	if v := os.Getenv(EnvPrefix + "SESSIONS_DIR"); v != "" {
		c.Session.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "ENCRYPT_SESSIONS"); v != "" {
		c.Session.Encrypt = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.ColorEnabled = false
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations and
// returns the first one found, or "".
func FindConfigFile() string {
	locations := []string{
		".igunfollowers.yaml",
		".igunfollowers.yml",
		"~/.config/igunfollowers/config.yaml",
		"~/.config/igunfollowers/config.yml",
		"~/.igunfollowers.yaml",
		"~/.igunfollowers.yml",
	}

	for _, loc := range locations {
		expanded, err := homedir.Expand(loc)
		if err != nil {
			continue
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}

	return ""
}

// ExpandPaths resolves a leading ~ in every path-valued setting
func (c *Config) ExpandPaths() error {
	dir, err := homedir.Expand(c.Session.Directory)
	if err != nil {
		return fmt.Errorf("failed to expand session directory: %w", err)
	}
	c.Session.Directory = dir

	if c.Logging.File != "" {
		file, err := homedir.Expand(c.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to expand log file path: %w", err)
		}
		c.Logging.File = file
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	} else if u, err := url.Parse(c.Instagram.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid instagram base URL: %q", c.Instagram.BaseURL))
	}
	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("instagram timeout must be positive"))
	}
	if c.Instagram.MaxConnectionAttempts < 1 || c.Instagram.MaxConnectionAttempts > MaxConnectionAttempts {
		errs = append(errs, fmt.Errorf("max connection attempts must be between 1 and %d", MaxConnectionAttempts))
	}
	if c.Instagram.PageSize < 1 || c.Instagram.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d", MaxPageSize))
	}

	if c.Session.Directory == "" {
		errs = append(errs, errors.New("session directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid log format: %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["sessions-dir"].(string); ok && dir != "" {
		c.Session.Directory = dir
	}
	if encrypt, ok := flags["encrypt-sessions"].(bool); ok {
		c.Session.Encrypt = encrypt
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.UI.ColorEnabled = false
	}
	if notify, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = notify
	}
	if attempts, ok := flags["max-connection-attempts"].(int); ok {
		c.Instagram.MaxConnectionAttempts = attempts
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	if home, err := homedir.Dir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".igunfollowers.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.ExpandPaths(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
