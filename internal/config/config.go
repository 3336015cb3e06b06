// SPDX-License-Identifier: MPL-2.0

// Package config loads kitbag's configuration file and environment
// overrides. Configuration is optional: every subcommand works with an
// absent config file, falling back to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "kitbag"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
	// EnvPrefix is the prefix for environment variable overrides
	// (e.g. KITBAG_S3_REGION).
	EnvPrefix = "KITBAG"
)

// ErrInvalidConfig is the sentinel error wrapped by config validation failures.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config holds all kitbag settings.
	Config struct {
		Watch WatchConfig `mapstructure:"watch"`
		JSON  JSONConfig  `mapstructure:"json"`
		S3    S3Config    `mapstructure:"s3"`
	}

	// WatchConfig holds defaults for the watch subcommand.
	WatchConfig struct {
		// Debounce is the default debounce window, as a duration string.
		Debounce string `mapstructure:"debounce"`
	}

	// JSONConfig holds defaults for the json subcommand.
	JSONConfig struct {
		// Indent is the default indent width in spaces.
		Indent int `mapstructure:"indent"`
	}

	// S3Config holds defaults and credentials for the s3 subcommand.
	// Access keys here are an alternative to the standard AWS
	// environment variables and shared config; env vars win when both
	// are set.
	S3Config struct {
		Region          string `mapstructure:"region"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		// Endpoint overrides the S3 endpoint (e.g. for S3-compatible stores).
		Endpoint string `mapstructure:"endpoint"`
		// DefaultBucket is used when the bucket argument is omitted.
		DefaultBucket string `mapstructure:"default_bucket"`
	}
)

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{Debounce: "500ms"},
		JSON:  JSONConfig{Indent: 2},
		S3:    S3Config{Region: "us-east-1"},
	}
}

// ConfigDir returns the kitbag configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the config file (if present) and environment overrides,
// returning the merged configuration. A missing config file is not an
// error; a malformed one is.
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default (even an empty one) so AutomaticEnv
	// surfaces its KITBAG_* override through Unmarshal.
	defaults := DefaultConfig()
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("json.indent", defaults.JSON.Indent)
	v.SetDefault("s3.region", defaults.S3.Region)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.default_bucket", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer())
	v.AutomaticEnv()

	explicit := configFilePathOverride != ""
	path := configFilePathOverride
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	}

	v.SetConfigFile(path)
	v.SetConfigType(ConfigFileExt)

	if err := v.ReadInConfig(); err != nil {
		// A missing file at the default location is fine; a missing
		// file the user pointed at with --config is not, and anything
		// else (unreadable, malformed YAML) must surface.
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
		if !missing || explicit {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that viper cannot enforce on its own.
func (c *Config) Validate() error {
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("%w: watch.debounce %q: %v", ErrInvalidConfig, c.Watch.Debounce, err)
		}
	}
	if c.JSON.Indent < 0 || c.JSON.Indent > 16 {
		return fmt.Errorf("%w: json.indent %d (must be 0-16)", ErrInvalidConfig, c.JSON.Indent)
	}
	return nil
}

// DebounceDuration returns the configured watch debounce as a duration.
// Invalid or empty values fall back to the built-in default; Validate
// catches bad values at load time, so the fallback only matters for
// zero-value Configs constructed in tests.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
