// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all client configuration.
type Config struct {
	// Server
	ServerURL string        `env:"TYPEFACE_SERVER" envDefault:"http://localhost:8080"`
	Timeout   time.Duration `env:"TYPEFACE_TIMEOUT" envDefault:"0s"`
	Token     string        `env:"TYPEFACE_TOKEN"`

	// Local state
	ConfigDir string `env:"TYPEFACE_CONFIG_DIR"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Metrics (empty = disabled)
	MetricsAddr string `env:"METRICS_ADDR"`

	// S3 download destination
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.ServerURL = strings.TrimSuffix(strings.TrimSpace(c.ServerURL), "/")
	if c.ServerURL == "" {
		return fmt.Errorf("TYPEFACE_SERVER must not be empty")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("TYPEFACE_SERVER must be an http(s) URL, got %q", c.ServerURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("TYPEFACE_TIMEOUT must not be negative")
	}
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir()
	}
	return nil
}

// SetServer overrides the server URL (e.g. from a -server flag).
func (c *Config) SetServer(url string) error {
	c.ServerURL = url
	return c.normalize()
}

// DefaultConfigDir returns the default directory for persisted credentials.
func DefaultConfigDir() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Typeface")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "typeface")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "typeface")
}
