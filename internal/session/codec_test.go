// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package session_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/session"
	"github.com/keygate/keygate/pkg/errutil"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := session.NewCodec()

	principals := []session.Principal{
		{ID: ulid.Make(), Email: "a@x.com"},
		{ID: ulid.Make(), Email: "Mixed.Case+tag@Example.org"},
		{ID: ulid.Make(), Email: `quote"and<html>&amp@x.com`},
		{ID: ulid.Make(), Email: "ünïcødé@例え.jp"},
	}

	for _, p := range principals {
		t.Run(p.Email, func(t *testing.T) {
			token, err := codec.Encode(p)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			decoded, err := codec.Decode(token)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
		})
	}
}

func TestCodec_EncodeIsDeterministic(t *testing.T) {
	codec := session.NewCodec()
	p := session.Principal{ID: ulid.Make(), Email: "a@x.com"}

	first, err := codec.Encode(p)
	require.NoError(t, err)
	second, err := codec.Encode(p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCodec_EncodeRejectsUnrepresentablePrincipal(t *testing.T) {
	codec := session.NewCodec()

	t.Run("zero id", func(t *testing.T) {
		_, err := codec.Encode(session.Principal{Email: "a@x.com"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_PRINCIPAL")
		errutil.AssertErrorContext(t, err, "operation", "validate principal")
	})

	t.Run("empty email", func(t *testing.T) {
		_, err := codec.Encode(session.Principal{ID: ulid.Make()})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_PRINCIPAL")
		errutil.AssertErrorContext(t, err, "operation", "validate principal")
	})

	t.Run("email with invalid utf-8", func(t *testing.T) {
		_, err := codec.Encode(session.Principal{ID: ulid.Make(), Email: "a\xffb@x.com"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_PRINCIPAL")
		errutil.AssertErrorContext(t, err, "operation", "validate principal")
	})
}

func TestCodec_DecodeRejectsForeignTokens(t *testing.T) {
	codec := session.NewCodec()
	id := ulid.Make().String()
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not base64url", token: "!!!not-base64!!!"},
		{name: "padded base64", token: base64.URLEncoding.EncodeToString([]byte(`{"id":"` + id + `","email":"a@x.com"}`))},
		{name: "not json", token: enc("hello")},
		{name: "json null", token: enc("null")},
		{name: "json array", token: enc(`["` + id + `","a@x.com"]`)},
		{name: "missing email", token: enc(`{"id":"` + id + `"}`)},
		{name: "missing id", token: enc(`{"email":"a@x.com"}`)},
		{name: "invalid id", token: enc(`{"id":"nope","email":"a@x.com"}`)},
		{name: "unknown field", token: enc(`{"id":"` + id + `","email":"a@x.com","admin":true}`)},
		{name: "trailing document", token: enc(`{"id":"` + id + `","email":"a@x.com"}{}`)},
		{name: "password hash smuggled in", token: enc(`{"id":"` + id + `","email":"a@x.com","password_hash":"x"}`)},
		{name: "upper-case keys", token: enc(`{"ID":"` + id + `","EMAIL":"a@x.com"}`)},
		{name: "lower-case id", token: enc(`{"id":"` + strings.ToLower(id) + `","email":"a@x.com"}`)},
		{name: "duplicate key", token: enc(`{"id":"` + id + `","email":"b@x.com","email":"a@x.com"}`)},
		{name: "reordered keys", token: enc(`{"email":"a@x.com","id":"` + id + `"}`)},
		{name: "insignificant whitespace", token: enc(`{"id": "` + id + `", "email": "a@x.com"}`)},
		{name: "replacement of invalid utf-8", token: enc("{\"id\":\"" + id + "\",\"email\":\"a\xffb@x.com\"}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := codec.Decode(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, session.ErrDecode)
			errutil.AssertErrorCode(t, err, "SESSION_DECODE_FAILED")
			assert.Equal(t, session.Principal{}, p)
		})
	}
}

func TestCodec_DecodeRejectsCorruptedToken(t *testing.T) {
	codec := session.NewCodec()
	token, err := codec.Encode(session.Principal{ID: ulid.Make(), Email: "a@x.com"})
	require.NoError(t, err)

	_, err = codec.Decode(token[:len(token)/2])
	assert.ErrorIs(t, err, session.ErrDecode)
}
