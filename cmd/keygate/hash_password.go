// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/config"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print the peppered argon2id hash of a password",
		Long: `Read a password from the terminal (or the first line of stdin) and
print its PHC-encoded argon2id hash using KEYGATE_PEPPER. The hash can be
stored directly in the users table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd, config.NeedPepper)
			if err != nil {
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

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
