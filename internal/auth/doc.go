// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package auth verifies credentials and derives principals from sessions.
//
// # Domain Types
//
// UserRecord is a stored account and should be created with NewUserRecord,
// which validates the email and requires a password hash. Credentials is
// the transient email/password pair presented at login.
//
// # Services
//
//   - Argon2idHasher - peppered argon2id hashing and verification
//   - Service - login and logout, built with NewService
//   - Extractor - session token to principal, built with NewExtractor
//
// # Errors
//
// Every credential or session defect is reported as an error wrapping
// ErrUnauthorized, whatever the cause. Store and capacity failures carry
// CodeDirectoryFailed or CodeUnavailable and never wrap ErrUnauthorized.
package auth
