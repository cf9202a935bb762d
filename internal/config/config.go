// Package config loads the optional YAML configuration file of the server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"

	defaultCalendarID     = "primary"
	defaultAccount        = "default"
	defaultMaxSuggestions = 3
	defaultHTTPAddr       = ":8080"
	defaultMetricsAddr    = ":9090"
)

// MetricsConfig controls the dedicated metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the file representation of the serve settings. Command line
// flags take precedence over every field.
type Config struct {
	// Timezone is an IANA zone name. Empty means detect from the host.
	Timezone string `yaml:"timezone"`

	// CalendarID is used when a tool call names no calendar.
	CalendarID string `yaml:"calendar_id"`

	// Account selects the stored Google token used by default.
	Account string `yaml:"account"`

	MaxSuggestions int    `yaml:"max_suggestions"`
	Transport      string `yaml:"transport"`
	HTTPAddr       string `yaml:"http_addr"`

	// Yolo registers the tools that modify calendars.
	Yolo  bool `yaml:"yolo"`
	Debug bool `yaml:"debug"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CalendarID:     defaultCalendarID,
		Account:        defaultAccount,
		MaxSuggestions: defaultMaxSuggestions,
		Transport:      TransportStdio,
		HTTPAddr:       defaultHTTPAddr,
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    defaultMetricsAddr,
		},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "calagent.yaml")
	}
	return filepath.Join(dir, "calagent", "config.yaml")
}

// Normalize fills zero values with defaults so that partial files behave.
func (c *Config) Normalize() {
	if c.CalendarID == "" {
		c.CalendarID = defaultCalendarID
	}
	if c.Account == "" {
		c.Account = defaultAccount
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = defaultMaxSuggestions
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = defaultMetricsAddr
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}
	if c.MaxSuggestions < 0 {
		return fmt.Errorf("max_suggestions must not be negative, got %d", c.MaxSuggestions)
	}
	return nil
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path with 0600 permissions, replacing the file
// atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".calagent-config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
