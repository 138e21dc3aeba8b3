// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/session"
)

// MaxEmailLength bounds the email accepted at login and on creation.
const MaxEmailLength = 254

// Credentials is an email/password pair presented at login.
// It is never persisted and its password is never logged.
type Credentials struct {
	Email    string
	Password string
}

// UserRecord is a stored user account.
type UserRecord struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUserRecord creates a validated UserRecord with a fresh ID.
func NewUserRecord(email, passwordHash string) (*UserRecord, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &UserRecord{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Principal returns the token-safe identity of the user.
func (u *UserRecord) Principal() session.Principal {
	return session.Principal{ID: u.ID, Email: u.Email}
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("USER_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email must be a bare address")
	}
	return nil
}

// UserDirectory looks up users for authentication.
type UserDirectory interface {
	// FindByEmail returns the user with the given email (case-insensitive).
	// Returns an error wrapping ErrNotFound if there is none. Any other
	// error is a store failure, never a missing user.
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
}
