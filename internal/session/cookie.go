// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Cookie defaults.
const (
	DefaultCookieName = "keygate_session"
	DefaultCookieTTL  = 24 * time.Hour

	// MinSecretLength is the shortest HMAC secret accepted for sealing cookies.
	MinSecretLength = 32
)

// CookieConfig configures a CookieTransport.
type CookieConfig struct {
	Name   string
	Secret []byte
	TTL    time.Duration
	Secure bool
	Domain string
}

// CookieTransport stores a session token in a signed cookie.
//
// The cookie value is an HS256 JWT whose subject is the codec token. The
// JWT expiry bounds the session lifetime; the token itself has none.
type CookieTransport struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	domain string
	now    func() time.Time
}

// NewCookieTransport validates cfg and creates a CookieTransport.
func NewCookieTransport(cfg CookieConfig) (*CookieTransport, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultCookieTTL
	}
	if cfg.TTL < 0 {
		return nil, oops.Code("SESSION_INVALID_CONFIG").
			With("ttl", cfg.TTL.String()).
			Errorf("session TTL must be positive")
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, oops.Code("SESSION_INVALID_CONFIG").
			With("min_length", MinSecretLength).
			Errorf("session secret must be at least %d bytes", MinSecretLength)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &CookieTransport{
		name:   cfg.Name,
		secret: secret,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		domain: cfg.Domain,
		now:    time.Now,
	}, nil
}

// Issue seals token into the session cookie on w.
func (t *CookieTransport) Issue(w http.ResponseWriter, token string) error {
	if token == "" {
		return oops.Code("SESSION_ISSUE_FAILED").Errorf("session token cannot be empty")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   token,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "sign session cookie").
			Wrap(err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    signed,
		Path:     "/",
		Domain:   t.domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   int(t.ttl.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the token sealed in the request's session cookie.
// It returns "" when the cookie is absent, forged, or expired.
func (t *CookieTransport) Read(r *http.Request) string {
	c, err := r.Cookie(t.name)
	if err != nil || c.Value == "" {
		return ""
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(c.Value, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return ""
	}

	return claims.Subject
}

// Clear expires the session cookie. Safe to call without an active session.
func (t *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    "",
		Path:     "/",
		Domain:   t.domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Name returns the cookie name.
func (t *CookieTransport) Name() string {
	return t.name
}
