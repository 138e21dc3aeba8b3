// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/session"
	"github.com/keygate/keygate/pkg/errutil"
)

// DefaultMaxBodyBytes bounds a login request body.
const DefaultMaxBodyBytes = 4096

// Authenticator logs users in and out.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (session.Principal, error)
	Logout(ctx context.Context, token string)
}

// Identifier resolves a session token to a principal.
type Identifier interface {
	Extract(ctx context.Context, token string) (session.Principal, error)
}

// TokenEncoder turns a principal into a session token.
type TokenEncoder interface {
	Encode(p session.Principal) (string, error)
}

// Transport carries session tokens in requests and responses.
type Transport interface {
	Issue(w http.ResponseWriter, token string) error
	Read(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Auth         Authenticator
	Identity     Identifier
	Encoder      TokenEncoder
	Transport    Transport
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Handlers serves the authentication endpoints.
type Handlers struct {
	auth      Authenticator
	identity  Identifier
	encoder   TokenEncoder
	transport Transport
	maxBody   int64
	logger    *slog.Logger
}

// NewHandlers validates deps and creates Handlers.
func NewHandlers(deps Deps) (*Handlers, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Code("WEB_INVALID_HANDLERS").Errorf("authenticator is required")
	case deps.Identity == nil:
		return nil, oops.Code("WEB_INVALID_HANDLERS").Errorf("identifier is required")
	case deps.Encoder == nil:
		return nil, oops.Code("WEB_INVALID_HANDLERS").Errorf("token encoder is required")
	case deps.Transport == nil:
		return nil, oops.Code("WEB_INVALID_HANDLERS").Errorf("session transport is required")
	case deps.MaxBodyBytes < 0:
		return nil, oops.Code("WEB_INVALID_HANDLERS").Errorf("max body bytes cannot be negative")
	}

	h := &Handlers{
		auth:      deps.Auth,
		identity:  deps.Identity,
		encoder:   deps.Encoder,
		transport: deps.Transport,
		maxBody:   deps.MaxBodyBytes,
		logger:    deps.Logger,
	}
	if h.maxBody == 0 {
		h.maxBody = DefaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := h.decodeCredentials(w, r)
	if err != nil {
		h.logger.DebugContext(ctx, "rejected login body", "error", err)
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	principal, err := h.auth.Login(ctx, creds)
	if err != nil {
		if auth.IsUnauthorized(err) {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		h.internalError(ctx, w, "login failed", err)
		return
	}

	token, err := h.encoder.Encode(principal)
	if err != nil {
		h.internalError(ctx, w, "encode session failed", err)
		return
	}
	if err := h.transport.Issue(w, token); err != nil {
		h.internalError(ctx, w, "issue session cookie failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeCredentials reads exactly one JSON object with known fields.
func (h *Handlers) decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req loginRequest
	if err := dec.Decode(&req); err != nil {
		return auth.Credentials{}, oops.Code("WEB_BAD_LOGIN_BODY").Wrap(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return auth.Credentials{}, oops.Code("WEB_BAD_LOGIN_BODY").Errorf("trailing data after login object")
	}

	return auth.Credentials{Email: req.Email, Password: req.Password}, nil
}

// Logout handles POST /logout. It succeeds with or without a session.
//
// Sessions are stateless: the response expires the cookie and nothing is
// revoked on the server. A client that ignores Max-Age=-1, or a copy of the
// cookie taken earlier, stays authenticated until the token's exp.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), h.transport.Read(r))
	h.transport.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.identity.Extract(ctx, h.transport.Read(r))
	if err != nil {
		if auth.IsUnauthorized(err) {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		h.internalError(ctx, w, "extract session failed", err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{ID: p.ID.String(), Email: p.Email})
}

func (h *Handlers) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	errutil.LogErrorContext(ctx, h.logger, msg, err)
	writeError(w, http.StatusInternalServerError, errInternal)
}
