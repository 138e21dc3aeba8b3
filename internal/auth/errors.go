// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when creating a user whose email is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnauthorized is the single outcome for any credential or session
	// defect. It never says which part of the credential was wrong.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error codes attached to errors returned by Service and Extractor.
const (
	CodeUnauthorized    = "AUTH_UNAUTHORIZED"
	CodeDirectoryFailed = "AUTH_DIRECTORY_FAILED"
	CodeUnavailable     = "AUTH_UNAVAILABLE"
)

// IsUnauthorized reports whether err is an authentication decision rather
// than an infrastructure fault.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
