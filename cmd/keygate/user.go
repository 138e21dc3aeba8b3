// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/auth/postgres"
	"github.com/keygate/keygate/internal/config"
)

// Default timeout for user commands.
const defaultUserTimeout = 30 * time.Second

func newUserCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd(deps))
	return cmd
}

func newUserAddCmd(deps *Deps) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Create a user",
		Long: `Create a user with EMAIL. The password is read from the terminal,
or from the first line of stdin when it is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, args[0], timeout, deps)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultUserTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runUserAdd(cmd *cobra.Command, email string, timeout time.Duration, deps *Deps) error {
	cfg, logger, err := loadConfig(cmd, config.NeedDatabase|config.NeedPepper)
	if err != nil {
		return err
	}
	if err := auth.ValidateEmail(email); err != nil {
		return err
	}

	hasher, err := auth.NewArgon2idHasher([]byte(cfg.Secrets.Pepper))
	if err != nil {
		return err
	}
	password, err := readPasswordInput(cmd)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	user, err := auth.NewUserRecord(email, hash)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := deps.Connect(ctx, poolConfig(cfg), logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	if err := postgres.NewUserRepository(db).Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return oops.Code("USER_EXISTS").
				With("email", user.Email).
				Errorf("a user with email %q already exists", user.Email)
		}
		return err
	}

	logger.Info("user created", "user_id", user.ID.String(), "email", user.Email)
	cmd.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}
