// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/authdir/authdir/internal/auth"
	authpg "github.com/authdir/authdir/internal/auth/postgres"
	"github.com/authdir/authdir/internal/config"
	"github.com/authdir/authdir/internal/httpapi"
	"github.com/authdir/authdir/internal/logging"
	"github.com/authdir/authdir/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authdir server",
		Long: `Start the authdir server: the JSON API for registration and login plus
the metrics/health endpoints. The user directory is held in memory by
default and is reset on restart; configure the postgres backend for a
durable directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().AddFlagSet(config.Flags())
	return cmd
}

// runServe starts the server and blocks until a termination signal.
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("authdir", version, cfg.LogFormat)

	slog.Info("starting authdir server",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"store_backend", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	directory, cleanup, err := buildDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := auth.NewServiceWithLogger(directory, auth.NewArgon2idHasher(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	var metrics *observability.Metrics
	var obsSrv *observability.Server
	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obsSrv = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		obsErrCh, err = obsSrv.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		metrics = obsSrv.Metrics()
	}

	apiSrv, err := httpapi.NewServer(cfg.ListenAddr, svc, metrics, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}
	apiErrCh, err := apiSrv.Start()
	if err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}

	// Block until a signal arrives or a server fails.
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			return fmt.Errorf("api server failed: %w", serveErr)
		}
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			return fmt.Errorf("observability server failed: %w", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiSrv.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if obsSrv != nil {
		if err := obsSrv.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("authdir server stopped")
	return nil
}

// buildDirectory constructs the configured user directory. The returned
// cleanup releases any held resources and is safe to call once.
func buildDirectory(ctx context.Context, cfg *config.Config) (auth.Directory, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		return auth.NewMemoryDirectory(), func() {}, nil
	}

	pool, err := connectPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return authpg.NewDirectory(pool), pool.Close, nil
}

// connectPool opens a pgx pool, retrying transient failures with exponential
// backoff so the server survives a database that is still coming up.
func connectPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
