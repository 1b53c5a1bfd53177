// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

// Package config loads runtime settings from defaults, an optional YAML
// file, and command-line flags, in that order of precedence (lowest first).
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Default values.
const (
	DefaultListenAddr   = ":8080"
	DefaultMetricsAddr  = "127.0.0.1:9100"
	DefaultLogFormat    = "json"
	DefaultStoreBackend = BackendMemory
)

// Config holds runtime settings for the authdir server.
type Config struct {
	// ListenAddr is the bind address for the JSON API.
	ListenAddr string `koanf:"listen-addr"`

	// MetricsAddr is the bind address for metrics and health probes.
	// Empty disables the observability server.
	MetricsAddr string `koanf:"metrics-addr"`

	// LogFormat selects the log output format: "json" or "text".
	LogFormat string `koanf:"log-format"`

	// StoreBackend selects the user directory backend: "memory" (volatile,
	// reset on restart) or "postgres".
	StoreBackend string `koanf:"store-backend"`

	// DatabaseURL is the PostgreSQL connection string. Required when
	// StoreBackend is "postgres".
	DatabaseURL string `koanf:"database-url"`
}

// Default returns a Config populated with development defaults.
func Default() Config {
	return Config{
		ListenAddr:   DefaultListenAddr,
		MetricsAddr:  DefaultMetricsAddr,
		LogFormat:    DefaultLogFormat,
		StoreBackend: DefaultStoreBackend,
	}
}

// Load builds a Config by overlaying an optional YAML file (path may be
// empty) and the given flag set onto the defaults. Only flags the user
// actually changed override file values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return oops.Code("CONFIG_INVALID").
			With("store_backend", c.StoreBackend).
			Errorf("store backend must be %s or %s", BackendMemory, BackendPostgres)
	}
	if c.StoreBackend == BackendPostgres && c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database-url is required for the postgres backend")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log format must be json or text")
	}
	return nil
}

// Flags returns a flag set covering every Config field, for use with Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("authdir", pflag.ContinueOnError)
	fs.String("listen-addr", DefaultListenAddr, "JSON API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("store-backend", DefaultStoreBackend, "user directory backend (memory or postgres)")
	fs.String("database-url", "", "PostgreSQL connection string")
	return fs
}
