// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logging"
	"github.com/keygate/keygate/internal/xdg"
)

const serviceName = "keygate"

// NewRootCmd creates the root command for the Keygate CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd builds the command tree with injectable dependencies.
// A nil deps uses the defaults.
func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "keygate",
		Short: "Keygate - email/password login with cookie sessions",
		Long: `Keygate authenticates an email and password against a PostgreSQL
user store and seals the resulting identity into a signed session cookie.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (default: $XDG_CONFIG_HOME/keygate/config.yaml if present)")
	flags.String("env-file", "", "dotenv file loaded before reading secrets")
	config.RegisterFlags(flags)

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newUserCmd(deps))
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig builds and validates the configuration for cmd, then installs
// the default logger. Without --config the XDG config file is used when it
// exists.
func loadConfig(cmd *cobra.Command, need config.Requirement) (*config.Config, *slog.Logger, error) {
	fs := cmd.Flags()
	configFile, _ := fs.GetString("config") //nolint:errcheck // missing flag means no file
	envFile, _ := fs.GetString("env-file")  //nolint:errcheck // missing flag means no env file

	if configFile == "" {
		if path, ok := xdg.FindConfigFile(); ok {
			configFile = path
		}
	}

	cfg, err := config.Load(fs, configFile, envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(need); err != nil {
		return nil, nil, err
	}

	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	return cfg, logger, nil
}
