package config

import (
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.Simulator.BaseURL)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.Data.WatchConfig)
	assert.False(t, cfg.Data.BackupOnExit)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty base URL",
			mutate:  func(c *Config) { c.Simulator.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Simulator.RequestTimeout = "soon" },
			wantErr: "timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Simulator.MaxRetries = -1 },
			wantErr: "retries",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Simulator.RateLimit = -0.5 },
			wantErr: "rate limit",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetRequestTimeout(t *testing.T) {
	cfg := DefaultConfig()
	timeout, err := cfg.GetRequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, timeout)
}

func TestDataDirPrefersConfiguredDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Dir = "/tmp/drawsim-test"

	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/drawsim-test", dir)
}

func TestConfigRoundTripsThroughTOML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulator.MaxRetries = 5
	cfg.API.AllowedOrigins = []string{"http://localhost:3000"}

	data, err := toml.Marshal(cfg)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, *cfg, decoded)
}
