// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the echo middleware for authentication,
// authorization gates and locale negotiation.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/auth"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
	"codeberg.org/nutechnocrats/clubhub/internal/services/token"
)

// Error messages returned by Authenticate.
const (
	MsgNotAuthorized      = "Not authorized to access this route"
	MsgTokenExpired       = "Token expired"
	MsgUserGone           = "User no longer exists"
	MsgAccountDeactivated = "Account has been deactivated"
)

// UserStore loads the user behind a token.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// TokenVerifier checks session tokens.
type TokenVerifier interface {
	Verify(token string) (*token.Claims, error)
}

// Authenticator resolves the session token of a request to a user.
type Authenticator struct {
	tokens     TokenVerifier
	users      UserStore
	cookieName string
}

// NewAuthenticator creates an Authenticator. When cookieName is not empty the
// cookie is consulted if no Authorization header is present.
func NewAuthenticator(tokens TokenVerifier, users UserStore, cookieName string) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, cookieName: cookieName}
}

// Authenticate rejects requests without a valid token for an active user.
func (a *Authenticator) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := a.resolve(c)
			if err != nil {
				return err
			}
			auth.Attach(c, user)
			return next(c)
		}
	}
}

// OptionalAuth attaches the user when a valid token is present and never
// rejects the request.
func (a *Authenticator) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if a.extract(c) != "" {
				if user, err := a.resolve(c); err == nil {
					auth.Attach(c, user)
				}
			}
			return next(c)
		}
	}
}

func (a *Authenticator) resolve(c echo.Context) (*models.User, error) {
	raw := a.extract(c)
	if raw == "" {
		return nil, apperror.Unauthorized(MsgNotAuthorized)
	}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, apperror.Unauthorized(MsgTokenExpired).WithCode(apperror.CodeTokenExpired)
		}
		slog.Debug("token_rejected", "error", err)
		return nil, apperror.Unauthorized(MsgNotAuthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperror.Unauthorized(MsgNotAuthorized)
	}

	ctx := c.Request().Context()
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgUserGone)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized(MsgAccountDeactivated).WithCode(apperror.CodeAccountDeactivated)
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last_login_update_failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// extract returns the bearer token, falling back to the session cookie.
func (a *Authenticator) extract(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	if a.cookieName != "" {
		if cookie, err := c.Cookie(a.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}
