package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Simulator service connection settings
	Simulator SimulatorConfig `toml:"simulator"`

	// REST API server settings
	API APIConfig `toml:"api"`

	// Data directory and persistence settings
	Data DataConfig `toml:"data"`
}

// SimulatorConfig contains settings for the remote simulation service.
type SimulatorConfig struct {
	BaseURL        string  `toml:"base_url"`        // Simulation service URL
	RequestTimeout string  `toml:"request_timeout"` // Per-request timeout (e.g., "60s")
	MaxRetries     int     `toml:"max_retries"`     // Retry attempts for transient failures
	RateLimit      float64 `toml:"rate_limit"`      // Requests per second (0 = unlimited)
}

// APIConfig contains REST API server settings.
type APIConfig struct {
	Port           int      `toml:"port"`            // Listen port
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins for the editing frontend
}

// DataConfig contains data directory settings.
type DataConfig struct {
	Dir          string `toml:"dir"`            // Data directory (default: ~/.drawsim-companion)
	WatchConfig  bool   `toml:"watch_config"`   // Reload current.json when edited externally
	BackupOnExit bool   `toml:"backup_on_exit"` // Back up the database on shutdown
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulator: SimulatorConfig{
			BaseURL:        "http://127.0.0.1:8000",
			RequestTimeout: "60s",
			MaxRetries:     3,
			RateLimit:      2,
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Data: DataConfig{
			Dir:          "",
			WatchConfig:  true,
			BackupOnExit: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".drawsim-companion")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Simulator.BaseURL == "" {
		return fmt.Errorf("simulator base URL cannot be empty")
	}

	if _, err := time.ParseDuration(c.Simulator.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Simulator.RequestTimeout, err)
	}

	if c.Simulator.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", c.Simulator.MaxRetries)
	}

	if c.Simulator.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative: %f", c.Simulator.RateLimit)
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}

	return nil
}

// GetRequestTimeout returns the simulator request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Simulator.RequestTimeout)
}

// DataDir returns the configured data directory, defaulting to
// ~/.drawsim-companion when unset.
func (c *Config) DataDir() (string, error) {
	if c.Data.Dir != "" {
		return c.Data.Dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".drawsim-companion"), nil
}
