// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package session holds the authenticated identity carried between requests.
//
// # Principal
//
// A Principal is the subset of a user record that is safe to hand to a
// client: the user ID and email. It never carries the password hash.
//
// # Codec
//
// Codec turns a Principal into an opaque session token and back. Encoding
// is deterministic and lossless, so Decode(Encode(p)) == p for every valid
// Principal. Decode rejects anything Encode could not have produced.
//
// # Transport
//
// CookieTransport is the session-storage collaborator. It seals a codec
// token into a signed, expiring cookie and clears that cookie on logout.
// The codec itself knows nothing about lifetimes or signatures.
//
// Sessions are stateless. Clear only asks the client to drop the cookie
// (Max-Age=-1); a cookie value copied before logout keeps passing Read
// until its exp claim passes. There is no server-side revocation list.
package session
