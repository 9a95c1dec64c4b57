// Package config loads linesock settings from LINESOCK_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix of all environment variables, for example LINESOCK_SOCKET
const Prefix = "LINESOCK"

// Config holds defaults for the command line flags
type Config struct {
	Socket        string        `envconfig:"SOCKET"`
	StripMode     string        `envconfig:"STRIP_MODE" default:"none"`
	MaxLineLength int           `envconfig:"MAX_LINE_LENGTH" default:"0"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"50ms"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.MaxLineLength < 0 {
		return nil, fmt.Errorf("max line length must not be negative, got %d", cfg.MaxLineLength)
	}
	return &cfg, nil
}

// SlogLevel converts LogLevel ("debug", "info", "warn", "error") to a slog.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
