// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package config loads Keygate settings from defaults, an optional YAML
// file, command-line flags and environment secrets, in increasing order of
// precedence.
package config

import (
	"time"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/session"
	"github.com/keygate/keygate/internal/store"
	"github.com/keygate/keygate/internal/workpool"
)

// MinPepperLength is the shortest accepted password pepper.
const MinPepperLength = 16

// Config is the complete runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" jsonschema:"description=Public API listener"`
	Metrics  MetricsConfig  `koanf:"metrics" jsonschema:"description=Metrics and health listener"`
	Log      LogConfig      `koanf:"log"`
	Session  SessionConfig  `koanf:"session"`
	Pool     PoolConfig     `koanf:"pool" jsonschema:"description=Worker pool for password verification"`
	Database DatabaseConfig `koanf:"database"`

	// Secrets only ever come from the environment.
	Secrets Secrets `koanf:"-" json:"-"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr              string        `koanf:"addr" jsonschema:"description=Listen address (host:port)"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes" jsonschema:"minimum=1"`
}

// MetricsConfig configures the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr" jsonschema:"description=Listen address; empty disables the server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string        `koanf:"cookie_name" jsonschema:"minLength=1"`
	TTL        time.Duration `koanf:"ttl"`
	Secure     bool          `koanf:"secure" jsonschema:"description=Send the cookie over HTTPS only"`
	Domain     string        `koanf:"domain"`
}

// PoolConfig sizes the verification worker pool.
type PoolConfig struct {
	Workers   int `koanf:"workers" jsonschema:"minimum=1"`
	QueueSize int `koanf:"queue_size" jsonschema:"minimum=0"`
}

// DatabaseConfig tunes the connection pool. The URL is a secret.
type DatabaseConfig struct {
	MaxConns     int32         `koanf:"max_conns" jsonschema:"minimum=1"`
	PingAttempts uint64        `koanf:"ping_attempts" jsonschema:"minimum=1"`
	PingBackoff  time.Duration `koanf:"ping_backoff"`
	// AutoMigrate applies pending schema migrations when serve starts.
	AutoMigrate  bool          `koanf:"auto_migrate"`
}

// Secrets are read from the environment.
type Secrets struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	Pepper        string `env:"KEYGATE_PEPPER"`
	SessionSecret string `env:"KEYGATE_SESSION_SECRET"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxBodyBytes:      4096,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Session: SessionConfig{
			CookieName: session.DefaultCookieName,
			TTL:        session.DefaultCookieTTL,
			Secure:     true,
		},
		Pool: PoolConfig{
			Workers:   workpool.DefaultWorkers,
			QueueSize: workpool.DefaultQueueSize,
		},
		Database: DatabaseConfig{
			MaxConns:     store.DefaultMaxConns,
			PingAttempts: store.DefaultPingAttempts,
			PingBackoff:  store.DefaultPingBackoff,
			AutoMigrate:  true,
		},
	}
}

// Requirement names the secrets a command needs.
type Requirement uint8

// Secret requirements.
const (
	NeedDatabase Requirement = 1 << iota
	NeedPepper
	NeedSessionSecret
)

// Validate checks settings and that the secrets in need are present.
func (c *Config) Validate(need Requirement) error {
	switch {
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format)
	case c.HTTP.Addr == "":
		return invalid("http.addr", "is required")
	case c.HTTP.ReadHeaderTimeout <= 0:
		return invalid("http.read_header_timeout", "must be positive")
	case c.HTTP.ShutdownTimeout <= 0:
		return invalid("http.shutdown_timeout", "must be positive")
	case c.HTTP.MaxBodyBytes <= 0:
		return invalid("http.max_body_bytes", "must be positive")
	case c.Session.CookieName == "":
		return invalid("session.cookie_name", "is required")
	case c.Session.TTL <= 0:
		return invalid("session.ttl", "must be positive")
	case c.Pool.Workers <= 0:
		return invalid("pool.workers", "must be positive, got %d", c.Pool.Workers)
	case c.Pool.QueueSize < 0:
		return invalid("pool.queue_size", "cannot be negative, got %d", c.Pool.QueueSize)
	case c.Database.MaxConns <= 0:
		return invalid("database.max_conns", "must be positive, got %d", c.Database.MaxConns)
	}

	if need&NeedDatabase != 0 && c.Secrets.DatabaseURL == "" {
		return invalid("DATABASE_URL", "environment variable is required")
	}
	if need&NeedPepper != 0 && len(c.Secrets.Pepper) < MinPepperLength {
		return invalid("KEYGATE_PEPPER", "must be at least %d bytes", MinPepperLength)
	}
	if need&NeedSessionSecret != 0 && len(c.Secrets.SessionSecret) < session.MinSecretLength {
		return invalid("KEYGATE_SESSION_SECRET", "must be at least %d bytes", session.MinSecretLength)
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(key+" "+format, args...)
}
