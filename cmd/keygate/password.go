// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// readPasswordInput reads a password without echo when stdin is a
// terminal, asking twice. Otherwise it reads the first line of stdin.
func readPasswordInput(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		first, err := promptPassword(cmd, f, "Password: ")
		if err != nil {
			return "", err
		}
		second, err := promptPassword(cmd, f, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
		}
		return first, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", oops.Code("PASSWORD_EMPTY").Errorf("no password on stdin")
		}
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", oops.Code("PASSWORD_EMPTY").Errorf("password cannot be empty")
	}
	return password, nil
}

func promptPassword(cmd *cobra.Command, f *os.File, prompt string) (string, error) {
	cmd.PrintErr(prompt)
	pw, err := readPassword(int(f.Fd()))
	cmd.PrintErrln()
	if err != nil {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	if len(pw) == 0 {
		return "", oops.Code("PASSWORD_EMPTY").Errorf("password cannot be empty")
	}
	return string(pw), nil
}
