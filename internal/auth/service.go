// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/session"
	"github.com/keygate/keygate/internal/workpool"
)

var tracer = otel.Tracer("github.com/keygate/keygate/internal/auth")

// SessionCodec converts principals to session tokens and back.
type SessionCodec interface {
	Encode(p session.Principal) (string, error)
	Decode(token string) (session.Principal, error)
}

// dummyPasswordHash is verified when a user doesn't exist so that unknown
// emails cost the same as wrong passwords.
// This is NOT a real credential - it will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login outcomes recorded in metrics and spans.
const (
	outcomeSuccess      = "success"
	outcomeUnauthorized = "unauthorized"
	outcomeError        = "error"
	outcomeUnavailable  = "unavailable"
)

// Service authenticates credentials and ends sessions.
type Service struct {
	users  UserDirectory
	hasher PasswordHasher
	codec  SessionCodec
	pool   *workpool.Pool
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for server-side diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service. Lookups and password verification run
// on pool.
func NewService(users UserDirectory, hasher PasswordHasher, codec SessionCodec, pool *workpool.Pool, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("user directory is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("session codec is required")
	}
	if pool == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("work pool is required")
	}

	s := &Service{
		users:  users,
		hasher: hasher,
		codec:  codec,
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("logger cannot be nil")
	}
	return s, nil
}

// Login verifies creds and returns the authenticated principal.
//
// Unknown emails, wrong passwords and unusable stored hashes all return
// the same error wrapping ErrUnauthorized. Store and pool failures return
// errors coded CodeDirectoryFailed or CodeUnavailable instead.
func (s *Service) Login(ctx context.Context, creds Credentials) (session.Principal, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	principal, err := workpool.Run(ctx, s.pool, func(ctx context.Context) (session.Principal, error) {
		return s.authenticate(ctx, creds)
	})
	if err == nil && ctx.Err() != nil {
		// The caller is gone; its result must not outlive the request.
		err = ctx.Err()
	}

	outcome := outcomeSuccess
	switch {
	case err == nil:
	case IsUnauthorized(err):
		outcome = outcomeUnauthorized
	case isUnavailable(err):
		outcome = outcomeUnavailable
		err = oops.Code(CodeUnavailable).
			With("operation", "offload login").
			Wrap(err)
	default:
		outcome = outcomeError
	}

	observability.RecordLoginAttempt(outcome)
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if err != nil {
		if outcome != outcomeUnauthorized {
			span.SetStatus(codes.Error, outcome)
		}
		return session.Principal{}, err
	}
	return principal, nil
}

func (s *Service) authenticate(ctx context.Context, creds Credentials) (session.Principal, error) {
	// Same normalisation NewUserRecord applies when the user is stored.
	creds.Email = strings.TrimSpace(creds.Email)
	if ValidateEmail(creds.Email) != nil {
		s.burnVerification(creds.Password)
		return session.Principal{}, unauthorized()
	}

	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return session.Principal{}, oops.Code(CodeDirectoryFailed).
				With("operation", "find user by email").
				Wrap(err)
		}
		s.burnVerification(creds.Password)
		return session.Principal{}, unauthorized()
	}

	valid, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash is unusable",
			"user_id", user.ID.String(),
			"error", err,
		)
		return session.Principal{}, unauthorized()
	}
	if !valid {
		return session.Principal{}, unauthorized()
	}

	return user.Principal(), nil
}

// burnVerification runs a verification that cannot succeed so a rejected
// login takes as long as a real one.
func (s *Service) burnVerification(password string) {
	_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // result is irrelevant
}

// Logout ends a session. Invalidation itself belongs to the session
// transport; Logout only records the event and always succeeds.
func (s *Service) Logout(ctx context.Context, token string) {
	observability.RecordLogout()
	if token == "" {
		return
	}
	if p, err := s.codec.Decode(token); err == nil {
		s.logger.InfoContext(ctx, "session ended", "user_id", p.ID.String())
	}
}

func unauthorized() error {
	return oops.Code(CodeUnauthorized).Wrapf(ErrUnauthorized, "invalid email or password")
}

func isUnavailable(err error) bool {
	return errors.Is(err, workpool.ErrSaturated) ||
		errors.Is(err, workpool.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
