// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authdir/authdir/internal/auth/postgres"
	"github.com/authdir/authdir/internal/config"
)

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending user-directory migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
			if err != nil {
				return err
			}
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().AddFlagSet(config.Flags())
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required to run migrations")
	}

	migrator, err := postgres.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("warning: failed to close migrator:", closeErr)
		}
	}()

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed successfully (version %d, dirty=%v)\n", version, dirty)
	return nil
}
