// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/auth"
	"codeberg.org/nutechnocrats/clubhub/internal/i18n"
	"codeberg.org/nutechnocrats/clubhub/internal/middleware"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
	"codeberg.org/nutechnocrats/clubhub/internal/services/token"
	"codeberg.org/nutechnocrats/clubhub/internal/testutil"
)

var testSecret = []byte("middleware-secret")

type env struct {
	e      *echo.Echo
	repo   *repository.Repository
	tokens *token.Service
	authn  *middleware.Authenticator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	tokens, err := token.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return &env{
		e:      echo.New(),
		repo:   repo,
		tokens: tokens,
		authn:  middleware.NewAuthenticator(tokens, repo, "token"),
	}
}

func (v *env) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	signed, _, err := v.tokens.Issue(user)
	require.NoError(t, err)
	return signed
}

// run passes a request through mw and reports the user seen by the handler.
func run(v *env, req *http.Request, mws ...echo.MiddlewareFunc) (*models.User, error) {
	c := v.e.NewContext(req, httptest.NewRecorder())
	var seen *models.User
	h := echo.HandlerFunc(func(c echo.Context) error {
		seen = auth.User(c)
		return c.NoContent(http.StatusOK)
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return seen, h(c)
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, apperror.KindUnauthorized, appErr.Kind)
	assert.Equal(t, msg, appErr.Message)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	v := newEnv(t)

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, ""), v.authn.Authenticate())
	assertUnauthorized(t, err, middleware.MsgNotAuthorized)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	v := newEnv(t)

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, "not-a-jwt"), v.authn.Authenticate())
	assertUnauthorized(t, err, middleware.MsgNotAuthorized)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")

	past, err := token.NewIssuer(testSecret, time.Hour, token.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	require.NoError(t, err)
	signed, _, err := past.Issue(user)
	require.NoError(t, err)

	_, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, signed), v.authn.Authenticate())
	assertUnauthorized(t, err, middleware.MsgTokenExpired)
	appErr, _ := apperror.As(err)
	assert.Equal(t, apperror.CodeTokenExpired, appErr.Code)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")
	signed := v.tokenFor(t, user)
	require.NoError(t, v.repo.DeleteUser(context.Background(), user.ID))

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, signed), v.authn.Authenticate())
	assertUnauthorized(t, err, middleware.MsgUserGone)
}

func TestAuthenticate_DeactivatedAfterIssue(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")
	signed := v.tokenFor(t, user)

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, signed), v.authn.Authenticate())
	require.NoError(t, err)

	require.NoError(t, v.repo.SetUserActive(context.Background(), user.ID, false))

	_, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, signed), v.authn.Authenticate())
	assertUnauthorized(t, err, middleware.MsgAccountDeactivated)
}

func TestAuthenticate_AttachesUser(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")

	seen, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, user)), v.authn.Authenticate())
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)

	stored, err := v.repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthenticate_Cookie(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")

	req := testutil.NewRequest(http.MethodGet, "/", nil, "")
	req.AddCookie(&http.Cookie{Name: "token", Value: v.tokenFor(t, user)})

	seen, err := run(v, req, v.authn.Authenticate())
	require.NoError(t, err)
	assert.Equal(t, user.ID, seen.ID)
}

func TestOptionalAuth(t *testing.T) {
	v := newEnv(t)
	user := testutil.NewTestUser(t, v.repo, "bob@x.edu")

	seen, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, ""), v.authn.OptionalAuth())
	require.NoError(t, err)
	assert.Nil(t, seen)

	seen, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, "garbage"), v.authn.OptionalAuth())
	require.NoError(t, err)
	assert.Nil(t, seen)

	seen, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, user)), v.authn.OptionalAuth())
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestRequireAdmin(t *testing.T) {
	v := newEnv(t)
	student := testutil.NewTestUser(t, v.repo, "student@x.edu")
	admin := testutil.NewTestUser(t, v.repo, "admin@x.edu", testutil.WithRole(models.RoleAdmin))

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, student)),
		v.authn.Authenticate(), middleware.RequireAdmin())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, admin)),
		v.authn.Authenticate(), middleware.RequireAdmin())
	assert.NoError(t, err)
}

func TestRequireRoles_WithoutAuthentication(t *testing.T) {
	v := newEnv(t)

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, ""), middleware.RequireRoles(models.RoleMember))
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestGatesCompose(t *testing.T) {
	v := newEnv(t)
	member := testutil.NewTestUser(t, v.repo, "member@x.edu",
		testutil.WithRole(models.RoleMember), testutil.WithStatus(models.StatusActive))
	verified := testutil.NewTestUser(t, v.repo, "verified@x.edu",
		testutil.WithRole(models.RoleMember), testutil.WithStatus(models.StatusActive), testutil.Verified())

	chain := []echo.MiddlewareFunc{
		v.authn.Authenticate(), middleware.RequireActiveMember(), middleware.RequireEmailVerified(),
	}

	_, err := run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, member)), chain...)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindForbidden, appErr.Kind)
	assert.Equal(t, apperror.CodeVerifyEmail, appErr.Code)

	_, err = run(v, testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, verified)), chain...)
	assert.NoError(t, err)
}

func TestRequireDepartmentAccess(t *testing.T) {
	v := newEnv(t)
	dept := testutil.FirstDepartment(t, v.repo)
	member := testutil.NewTestUser(t, v.repo, "member@x.edu",
		testutil.WithRole(models.RoleMember), testutil.WithDepartment(dept.ID))

	tests := []struct {
		name    string
		value   string
		allowed bool
	}{
		{"own department", itoa(dept.ID), true},
		{"other department", itoa(dept.ID + 1), false},
		{"malformed id", "abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, member))
			c := v.e.NewContext(req, httptest.NewRecorder())
			c.SetParamNames("departmentId")
			c.SetParamValues(tt.value)

			h := v.authn.Authenticate()(middleware.RequireDepartmentAccess("departmentId")(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
			err := h(c)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperror.Is(err, apperror.KindForbidden))
			}
		})
	}
}

func TestRequireOwnership(t *testing.T) {
	v := newEnv(t)
	owner := testutil.NewTestUser(t, v.repo, "owner@x.edu")
	other := testutil.NewTestUser(t, v.repo, "other@x.edu")
	coordinator := testutil.NewTestUser(t, v.repo, "coord@x.edu", testutil.WithRole(models.RoleCoordinator))

	check := func(caller *models.User) error {
		req := testutil.NewRequest(http.MethodGet, "/", nil, v.tokenFor(t, caller))
		c := v.e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("userId")
		c.SetParamValues(itoa(owner.ID))
		h := v.authn.Authenticate()(middleware.RequireOwnership("userId")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}))
		return h(c)
	}

	assert.NoError(t, check(owner))
	assert.NoError(t, check(coordinator))
	assert.True(t, apperror.Is(check(other), apperror.KindForbidden))
}

func TestLocale(t *testing.T) {
	v := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")
	c := v.e.NewContext(req, httptest.NewRecorder())

	var locale string
	h := middleware.Locale()(func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "de", locale)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
