// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/ctxkeys"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// SetUser returns a copy of ctx carrying the authenticated user.
func SetUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User{}, user)
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

// Attach stores user on the request of c.
func Attach(c echo.Context, user *models.User) {
	c.SetRequest(c.Request().WithContext(SetUser(c.Request().Context(), user)))
}

// User returns the authenticated user of the request, or nil.
func User(c echo.Context) *models.User {
	return GetUser(c.Request().Context())
}
