// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection defaults.
const (
	DefaultMaxConns     = 10
	DefaultPingAttempts = 5
	DefaultPingBackoff  = 200 * time.Millisecond
)

// PoolConfig configures Connect.
type PoolConfig struct {
	URL          string
	MaxConns     int32
	PingAttempts uint64
	PingBackoff  time.Duration
}

// pinger is the part of *pgxpool.Pool that waitReady needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pgx pool and waits until the database answers a ping,
// retrying with exponential backoff.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, oops.Code("STORE_INVALID_CONFIG").Errorf("database URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		// The URL may carry a password, so it stays out of the error.
		return nil, oops.Code("STORE_INVALID_CONFIG").
			With("operation", "parse database URL").
			Wrap(err)
	}
	pcfg.MaxConns = DefaultMaxConns
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	if err := waitReady(ctx, pool, cfg.PingAttempts, cfg.PingBackoff, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "database connected",
		"host", pcfg.ConnConfig.Host,
		"database", pcfg.ConnConfig.Database,
		"max_conns", pcfg.MaxConns,
	)
	return pool, nil
}

// waitReady pings p until it succeeds, attempts are exhausted, or ctx ends.
func waitReady(ctx context.Context, p pinger, attempts uint64, backoff time.Duration, logger *slog.Logger) error {
	if attempts == 0 {
		attempts = DefaultPingAttempts
	}
	if backoff <= 0 {
		backoff = DefaultPingBackoff
	}

	var try int
	b := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		try++
		if err := p.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", try, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", try).
			Wrap(err)
	}
	return nil
}
