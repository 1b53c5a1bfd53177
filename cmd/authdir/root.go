// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/authdir/authdir/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authdir CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authdir",
		Short: "authdir - account registration and login service",
		Long: `authdir is a credential-issuance-and-verification service: it validates
registration and login requests, enforces username and email uniqueness,
and derives and verifies argon2id password hashes.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// resolveConfigFile returns the config file to load: the --config flag if
// given, otherwise the XDG default path when that file exists, otherwise
// empty (defaults only).
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	if path := xdg.DefaultConfigFile(); fileExists(path) {
		return path
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
