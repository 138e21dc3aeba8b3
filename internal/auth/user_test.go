// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/pkg/errutil"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{name: "simple", email: "alice@example.com", valid: true},
		{name: "plus tag", email: "alice+keys@example.com", valid: true},
		{name: "subdomain", email: "bob@mail.example.org", valid: true},
		{name: "empty", email: ""},
		{name: "no at sign", email: "alice.example.com"},
		{name: "display name", email: "Alice <alice@example.com>"},
		{name: "two addresses", email: "a@example.com, b@example.com"},
		{name: "surrounding space", email: " alice@example.com"},
		{name: "too long", email: strings.Repeat("a", auth.MaxEmailLength) + "@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "USER_INVALID_EMAIL")
		})
	}
}

func TestNewUserRecord(t *testing.T) {
	t.Run("creates record with fresh id", func(t *testing.T) {
		a, err := auth.NewUserRecord("alice@example.com", storedHash)
		require.NoError(t, err)
		b, err := auth.NewUserRecord("bob@example.com", storedHash)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, "alice@example.com", a.Email)
		assert.False(t, a.CreatedAt.IsZero())
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		u, err := auth.NewUserRecord("  alice@example.com\n", storedHash)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := auth.NewUserRecord("nope", storedHash)
		errutil.AssertErrorCode(t, err, "USER_INVALID_EMAIL")
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUserRecord("alice@example.com", "")
		errutil.AssertErrorCode(t, err, "USER_INVALID_HASH")
	})
}

func TestUserRecord_Principal(t *testing.T) {
	u, err := auth.NewUserRecord("alice@example.com", storedHash)
	require.NoError(t, err)

	p := u.Principal()
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, u.Email, p.Email)
	require.NoError(t, p.Validate())
}
