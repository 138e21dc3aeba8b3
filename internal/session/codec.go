// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/samber/oops"
)

// ErrDecode is returned when a session token is empty, malformed, or not a
// serialized Principal.
var ErrDecode = errors.New("session token could not be decoded")

// Codec serializes a Principal into an opaque token and back.
//
// The token is the base64url (unpadded) form of the principal's JSON
// document. Field order is fixed by the struct, so encoding is
// deterministic. Codec has no state and is safe for concurrent use.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode serializes p. It fails only when p cannot be represented, which
// is a programming error on the caller's side.
func (c *Codec) Encode(p Principal) (string, error) {
	if err := p.Validate(); err != nil {
		return "", oops.Code("SESSION_ENCODE_FAILED").
			With("operation", "validate principal").
			Wrap(err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", oops.Code("SESSION_ENCODE_FAILED").
			With("operation", "marshal principal").
			Wrap(err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode.
// Every failure wraps ErrDecode.
func (c *Codec) Decode(token string) (Principal, error) {
	if token == "" {
		return Principal{}, decodeError("empty token", nil)
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Principal{}, decodeError("invalid encoding", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Principal
	if err := dec.Decode(&p); err != nil {
		return Principal{}, decodeError("invalid document", err)
	}
	// A second document or trailing garbage means this is not our token.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Principal{}, decodeError("trailing data", nil)
	}

	if err := p.Validate(); err != nil {
		return Principal{}, decodeError("invalid principal", err)
	}
	// Key case, ULID case and duplicate keys all survive json.Unmarshal.
	if canonical, err := c.Encode(p); err != nil || canonical != token {
		return Principal{}, decodeError("non-canonical document", nil)
	}

	return p, nil
}

func decodeError(reason string, cause error) error {
	b := oops.Code("SESSION_DECODE_FAILED").With("reason", reason)
	if cause != nil {
		b = b.With("cause", cause.Error())
	}
	return b.Wrap(ErrDecode)
}
