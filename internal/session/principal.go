// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package session

import (
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Principal is the minimal authenticated identity embedded in a session.
// It is a value type; copies are independent and never mutated in place.
type Principal struct {
	ID    ulid.ULID `json:"id"`
	Email string    `json:"email"`
}

// Validate reports whether the principal can be represented in a token.
func (p Principal) Validate() error {
	if p.ID.Compare(ulid.ULID{}) == 0 {
		return oops.Code("SESSION_INVALID_PRINCIPAL").Errorf("principal ID cannot be zero")
	}
	if p.Email == "" {
		return oops.Code("SESSION_INVALID_PRINCIPAL").Errorf("principal email cannot be empty")
	}
	if !utf8.ValidString(p.Email) {
		return oops.Code("SESSION_INVALID_PRINCIPAL").Errorf("principal email is not valid UTF-8")
	}
	return nil
}
