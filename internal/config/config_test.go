// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "authdir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Empty(t, cfg.DatabaseURL)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("no file and no flags yields defaults", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), *cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
listen-addr: ":9999"
log-format: text
`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, "text", cfg.LogFormat)
		// Untouched keys keep their defaults.
		assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
		assert.Equal(t, BackendMemory, cfg.StoreBackend)
	})

	t.Run("changed flags override file values", func(t *testing.T) {
		path := writeConfigFile(t, `
listen-addr: ":9999"
log-format: text
`)

		flags := Flags()
		require.NoError(t, flags.Parse([]string{"--listen-addr", ":7777"}))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.ListenAddr)
		// Flag left at its default does not clobber the file value.
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("postgres backend via flags", func(t *testing.T) {
		flags := Flags()
		require.NoError(t, flags.Parse([]string{
			"--store-backend", "postgres",
			"--database-url", "postgres://localhost:5432/authdir",
		}))

		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, BackendPostgres, cfg.StoreBackend)
		assert.Equal(t, "postgres://localhost:5432/authdir", cfg.DatabaseURL)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})

	t.Run("invalid config fails", func(t *testing.T) {
		path := writeConfigFile(t, `store-backend: cassandra`)

		_, err := Load(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store backend must be memory or postgres")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name: "postgres with database url is valid",
			mutate: func(c *Config) {
				c.StoreBackend = BackendPostgres
				c.DatabaseURL = "postgres://localhost/authdir"
			},
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.StoreBackend = "sqlite" },
			errMsg: "store backend must be memory or postgres",
		},
		{
			name:   "postgres without database url",
			mutate: func(c *Config) { c.StoreBackend = BackendPostgres },
			errMsg: "database-url is required",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.LogFormat = "logfmt" },
			errMsg: "log format must be json or text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
