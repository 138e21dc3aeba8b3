// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/session"
)

// Extractor turns the session token carried by a request into a principal.
//
// The token is the only source of truth: the user directory is never
// consulted, so changes to a user record are not visible until the user
// logs in again.
type Extractor struct {
	codec  SessionCodec
	logger *slog.Logger
}

// NewExtractor creates an Extractor that decodes tokens with codec.
func NewExtractor(codec SessionCodec, logger *slog.Logger) (*Extractor, error) {
	if codec == nil {
		return nil, oops.Code("AUTH_INVALID_EXTRACTOR").Errorf("session codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{codec: codec, logger: logger}, nil
}

// Extract returns the principal encoded in token. An empty token means the
// request carried no session. Both a missing and an undecodable token
// yield an error wrapping ErrUnauthorized.
func (e *Extractor) Extract(ctx context.Context, token string) (session.Principal, error) {
	ctx, span := tracer.Start(ctx, "auth.Extract")
	defer span.End()

	if token == "" {
		observability.RecordSessionExtraction("missing")
		return session.Principal{}, noSession()
	}

	p, err := e.codec.Decode(token)
	if err != nil {
		observability.RecordSessionExtraction("invalid")
		e.logger.DebugContext(ctx, "rejected session token", "error", err)
		return session.Principal{}, noSession()
	}

	observability.RecordSessionExtraction("ok")
	return p, nil
}

func noSession() error {
	return oops.Code(CodeUnauthorized).Wrapf(ErrUnauthorized, "no valid session")
}
