// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// sections are the top-level keys a flag name may start with.
var sections = map[string]struct{}{
	"http": {}, "metrics": {}, "log": {}, "session": {}, "pool": {}, "database": {},
}

// RegisterFlags adds one flag per setting to fs, named section-key with
// dashes (pool-queue-size sets pool.queue_size). Defaults come from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.Duration("http-read-header-timeout", d.HTTP.ReadHeaderTimeout, "time allowed to read request headers")
	fs.Duration("http-shutdown-timeout", d.HTTP.ShutdownTimeout, "graceful shutdown deadline")
	fs.Int64("http-max-body-bytes", d.HTTP.MaxBodyBytes, "largest accepted request body")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health listen address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("session-cookie-name", d.Session.CookieName, "session cookie name")
	fs.Duration("session-ttl", d.Session.TTL, "session lifetime")
	fs.Bool("session-secure", d.Session.Secure, "mark the session cookie Secure")
	fs.String("session-domain", d.Session.Domain, "session cookie domain")
	fs.Int("pool-workers", d.Pool.Workers, "password verification workers")
	fs.Int("pool-queue-size", d.Pool.QueueSize, "queued logins before rejecting")
	fs.Int32("database-max-conns", d.Database.MaxConns, "maximum database connections")
	fs.Bool("database-auto-migrate", d.Database.AutoMigrate, "apply pending migrations on serve")
}

// Load builds a Config. Values from configFile (YAML, optional) override
// the defaults, flags explicitly set on fs (optional) override the file,
// and secrets are read from the environment after loading envFile
// (optional) into it. Variables already set in the environment win over
// envFile. Load does not validate.
func Load(fs *pflag.FlagSet, configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", configFile).
				Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "decode settings").
			Wrap(err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", envFile).
				Wrap(err)
		}
	}

	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "read environment").
			Wrap(err)
	}
	cfg.Secrets = secrets

	return &cfg, nil
}

// flagKey maps a flag name to its koanf key and skips flags that are not
// settings (--config, --env-file).
func flagKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		section, rest, ok := strings.Cut(f.Name, "-")
		if !ok {
			return "", nil
		}
		if _, known := sections[section]; !known {
			return "", nil
		}
		return section + "." + strings.ReplaceAll(rest, "-", "_"), posflag.FlagVal(fs, f)
	}
}
