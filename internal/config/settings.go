package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TODOCAL_BACKEND_URL.
const EnvPrefix = "TODOCAL"

// Settings is the on-disk shape of config.yaml.
type Settings struct {
	BackendURL string `yaml:"backend_url" mapstructure:"backend_url"`
	WeekStart  string `yaml:"week_start" mapstructure:"week_start"`
	Timezone   string `yaml:"timezone" mapstructure:"timezone"`
	Timeout    string `yaml:"timeout" mapstructure:"timeout"`
	GoogleList string `yaml:"google_list" mapstructure:"google_list"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		BackendURL: DefaultBackendURL,
		WeekStart:  "sunday",
		Timezone:   "Local",
		Timeout:    DefaultTimeout.String(),
		GoogleList: DefaultGoogleList,
	}
}

// LoadSettings reads path (if present) and applies TODOCAL_* environment overrides.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := DefaultSettings()
	v.SetDefault("backend_url", def.BackendURL)
	v.SetDefault("week_start", def.WeekStart)
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("google_list", def.GoogleList)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Settings{}, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return s, nil
}

// WriteDefault writes the default settings to path with mode 0600.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return err
	}
	header := "# todocal configuration\n"
	return os.WriteFile(path, append([]byte(header), data...), 0600)
}

func (c *Config) apply(s Settings) error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(s.BackendURL), "/")

	day, err := ParseWeekday(s.WeekStart)
	if err != nil {
		return err
	}
	c.WeekStart = day

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %s", s.Timezone)
	}
	c.Location = loc

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout: %s", s.Timeout)
		}
		c.Timeout = d
	}

	c.GoogleList = strings.TrimSpace(s.GoogleList)
	return nil
}

// ParseWeekday parses an English weekday name or its three-letter prefix.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid week start: %s", s)
}
