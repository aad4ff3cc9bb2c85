// Package config handles the configuration directory, its files and user settings.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// AppName is the application directory name.
	AppName = "todocal"

	// SettingsFile is the user settings filename.
	SettingsFile = "config.yaml"

	// SessionFile is the stored login session filename.
	SessionFile = "session.json"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// GoogleTokenFile is the stored Google OAuth token filename.
	GoogleTokenFile = "google_token.json"

	// DefaultBackendURL is used when no backend is configured.
	DefaultBackendURL = "http://localhost:3000"

	// DefaultTimeout bounds each backend request.
	DefaultTimeout = 10 * time.Second

	// DefaultGoogleList is the Google Tasks list used by export.
	DefaultGoogleList = "todocal"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// BackendURL is the base URL of the calendar backend.
	BackendURL string

	// WeekStart is the first day of the displayed week.
	WeekStart time.Weekday

	// Location is the time zone used to read and display times.
	Location *time.Location

	// Timeout bounds each backend request.
	Timeout time.Duration

	// GoogleList is the Google Tasks list that export writes to.
	GoogleList string

	logger *slog.Logger
}

// New creates a Config for the default or specified config directory and
// loads config.yaml and TODOCAL_* environment overrides.
// If configDir is empty, uses XDG_CONFIG_HOME/todocal or $HOME/.config/todocal.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}

	s, err := LoadSettings(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.apply(s); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the stored session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// GoogleTokenPath returns the path to the stored Google OAuth token file.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	return Exists(c.SessionPath())
}

// HasOAuthClient checks if the Google OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	return Exists(c.OAuthClientPath())
}

// HasGoogleToken checks if the Google token file exists.
func (c *Config) HasGoogleToken() bool {
	return Exists(c.GoogleTokenPath())
}

// Backend returns the backend URL, falling back to DefaultBackendURL.
func (c *Config) Backend() string {
	if c.BackendURL == "" {
		return DefaultBackendURL
	}
	return c.BackendURL
}

// Loc returns the configured location, falling back to time.Local.
func (c *Config) Loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// RequestTimeout returns the per-request timeout, falling back to DefaultTimeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// GoogleListName returns the export list name, falling back to DefaultGoogleList.
func (c *Config) GoogleListName() string {
	if c.GoogleList == "" {
		return DefaultGoogleList
	}
	return c.GoogleList
}

// SetLogger sets the logger handed to components.
func (c *Config) SetLogger(l *slog.Logger) {
	c.logger = l
}

// Logger returns the configured logger, or one that discards everything.
func (c *Config) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

// Exists reports whether a file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
