// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/auth"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	authsvc "codeberg.org/nutechnocrats/clubhub/internal/services/auth"
)

// CookieConfig describes the session cookie set next to the bearer token.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandlers contains handlers for registration, login and account upkeep.
type AuthHandlers struct {
	auth   *authsvc.Service
	cookie CookieConfig
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service, cookie CookieConfig) *AuthHandlers {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandlers{auth: svc, cookie: cookie}
}

// Register creates a pending account.
func (h *AuthHandlers) Register(c echo.Context) error {
	var in authsvc.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": authsvc.MsgRegistrationSuccess,
		"user":    user,
	})
}

// Login exchanges credentials for a session token.
func (h *AuthHandlers) Login(c echo.Context) error {
	var in authsvc.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}

	session, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.sessionResponse(c, session, "Authentication successful")
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "none",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.auth.GetUser(c.Request().Context(), current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// UpdateProfile changes the self-service profile fields.
func (h *AuthHandlers) UpdateProfile(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	var update models.ProfileUpdate
	if err := bind(c, &update); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), current.ID, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// UpdatePassword changes the password and returns a fresh token.
func (h *AuthHandlers) UpdatePassword(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	var in authsvc.PasswordChangeInput
	if err := bind(c, &in); err != nil {
		return err
	}

	session, err := h.auth.UpdatePassword(c.Request().Context(), current.ID, in)
	if err != nil {
		return err
	}
	return h.sessionResponse(c, session, "Password updated successfully")
}

type emailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword sends a password reset link.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset email sent",
	})
}

type passwordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets a new password using an emailed reset token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req passwordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.auth.ResetPassword(c.Request().Context(), c.Param("resetToken"), req.Password)
	if err != nil {
		return err
	}
	return h.sessionResponse(c, session, "Password reset successful")
}

// VerifyEmail confirms an email address.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	user, err := h.auth.VerifyEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully",
		"user":    user,
	})
}

// ResendVerification issues a new verification email.
func (h *AuthHandlers) ResendVerification(c echo.Context) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.auth.ResendVerification(c.Request().Context(), current.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Verification email sent",
	})
}

func (h *AuthHandlers) sessionResponse(c echo.Context, session *authsvc.Session, message string) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"token":   session.Token,
		"user":    session.User,
	})
}

// currentUser returns the user attached by the authentication middleware.
func currentUser(c echo.Context) (*models.User, error) {
	user := auth.User(c)
	if user == nil {
		return nil, apperror.Unauthorized("Not authorized to access this route")
	}
	return user, nil
}
