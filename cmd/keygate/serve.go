// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/auth/postgres"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/session"
	"github.com/keygate/keygate/internal/store"
	"github.com/keygate/keygate/internal/web"
	"github.com/keygate/keygate/internal/workpool"
)

// readinessTimeout bounds the database ping behind /healthz/readiness.
const readinessTimeout = 2 * time.Second

func newServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API and observability servers",
		Long: `Start the HTTP API (/login, /logout, /me) and, unless --metrics-addr
is empty, the metrics and health server. Requires DATABASE_URL,
KEYGATE_PEPPER and KEYGATE_SESSION_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, deps)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	cfg, logger, err := loadConfig(cmd, config.NeedDatabase|config.NeedPepper|config.NeedSessionSecret)
	if err != nil {
		return err
	}

	logger.Info("starting keygate",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"workers", cfg.Pool.Workers,
		"queue_size", cfg.Pool.QueueSize,
	)

	if cfg.Database.AutoMigrate {
		if err := runAutoMigration(cfg.Secrets.DatabaseURL, deps.MigratorFactory); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := deps.Connect(ctx, poolConfig(cfg), logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	pool := workpool.New(cfg.Pool.Workers, cfg.Pool.QueueSize)
	defer pool.Close()

	var obs ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obs = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
			defer cancel()
			return db.Ping(pingCtx) == nil
		})
		if err := obs.RegisterQueueDepth(pool.QueueDepth); err != nil {
			return err
		}
		metrics = obs.Metrics()
	}

	handlers, err := newHandlers(cfg, db, pool, logger)
	if err != nil {
		return err
	}
	api := web.NewServer(web.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}, web.NewRouter(handlers, metrics), logger)

	var obsErrCh <-chan error
	if obs != nil {
		obsErrCh, err = obs.Start()
		if err != nil {
			return oops.Code("SERVER_START_FAILED").With("server", "observability").Wrap(err)
		}
	}
	apiErrCh, err := api.Start()
	if err != nil {
		if obs != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if stopErr := obs.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop observability server during cleanup", "error", stopErr)
			}
		}
		return oops.Code("SERVER_START_FAILED").With("server", "api").Wrap(err)
	}

	logger.Info("keygate ready", "http_addr", api.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return waitServer("api", apiErrCh) })
	if obs != nil {
		g.Go(func() error { return waitServer("observability", obsErrCh) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs error
		if err := api.Stop(shutdownCtx); err != nil {
			errs = errors.Join(errs, err)
		}
		if obs != nil {
			if err := obs.Stop(shutdownCtx); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		return errs
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// newHandlers wires the authentication stack onto db.
func newHandlers(cfg *config.Config, db Database, pool *workpool.Pool, logger *slog.Logger) (*web.Handlers, error) {
	hasher, err := auth.NewArgon2idHasher([]byte(cfg.Secrets.Pepper))
	if err != nil {
		return nil, err
	}

	codec := session.NewCodec()
	transport, err := session.NewCookieTransport(session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secret: []byte(cfg.Secrets.SessionSecret),
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
		Domain: cfg.Session.Domain,
	})
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(postgres.NewUserRepository(db), hasher, codec, pool, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	extractor, err := auth.NewExtractor(codec, logger)
	if err != nil {
		return nil, err
	}

	return web.NewHandlers(web.Deps{
		Auth:         svc,
		Identity:     extractor,
		Encoder:      codec,
		Transport:    transport,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Logger:       logger,
	})
}

func poolConfig(cfg *config.Config) store.PoolConfig {
	return store.PoolConfig{
		URL:          cfg.Secrets.DatabaseURL,
		MaxConns:     cfg.Database.MaxConns,
		PingAttempts: cfg.Database.PingAttempts,
		PingBackoff:  cfg.Database.PingBackoff,
	}
}

// waitServer blocks until a server fails or stops. A clean stop closes
// errCh without a value.
func waitServer(name string, errCh <-chan error) error {
	err, ok := <-errCh
	if !ok || err == nil {
		return nil
	}
	slog.Error("server error, triggering shutdown", "server", name, "error", err)
	return oops.Code("SERVER_FAILED").With("server", name).Wrap(err)
}

// runAutoMigration applies pending migrations before the servers start.
func runAutoMigration(databaseURL string, factory func(string) (Migrator, error)) error {
	m, err := factory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr, "note", "connection may leak")
		}
	}()

	if err := m.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}

	slog.Info("database migrations applied")
	return nil
}
