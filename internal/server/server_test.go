// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/nutechnocrats/clubhub/internal/config"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
	"codeberg.org/nutechnocrats/clubhub/internal/server"
	"codeberg.org/nutechnocrats/clubhub/internal/testutil"
)

type env struct {
	e      *echo.Echo
	repo   *repository.Repository
	mailer *testutil.Mailer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, repo := testutil.NewTestDB(t)
	cfg := &config.Config{
		Env: config.EnvDevelopment,
		Server: config.ServerConfig{
			Host:        "localhost",
			Port:        8080,
			BaseURL:     "http://localhost:8080",
			FrontendURL: "http://localhost:3000",
			MaxBodySize: 1,
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			JWTExpire:   time.Hour,
			CookieName:  "token",
			HashCost:    bcrypt.MinCost,
			HashWorkers: 2,
		},
	}
	mailer := &testutil.Mailer{}
	app, err := server.NewApp(cfg, db, mailer)
	require.NoError(t, err)
	return &env{e: app.Echo(), repo: repo, mailer: mailer}
}

func (env *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewRequest(method, path, testutil.JSONBody(t, body), token)
	} else {
		req = testutil.NewRequest(method, path, nil, token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *env) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok, ok := testutil.DecodeJSON(t, rec)["token"].(string)
	require.True(t, ok)
	return tok
}

func TestAliceScenario(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"firstName": "Alice",
		"lastName":  "Example",
		"email":     "alice@x.edu",
		"password":  "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := testutil.DecodeJSON(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "pending", user["membershipStatus"])
	assert.Equal(t, false, user["isEmailVerified"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@x.edu", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", testutil.DecodeJSON(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@x.edu", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = testutil.DecodeJSON(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "Authentication successful", body["message"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body["token"], cookie.Value)

	verifyToken := env.mailer.LastToken("verification", "alice@x.edu")
	require.NotEmpty(t, verifyToken)

	rec = env.do(t, http.MethodGet, "/api/auth/verify-email/"+verifyToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user = testutil.DecodeJSON(t, rec)["user"].(map[string]any)
	assert.Equal(t, true, user["isEmailVerified"])

	rec = env.do(t, http.MethodGet, "/api/auth/verify-email/"+verifyToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newEnv(t)
	testutil.NewTestUser(t, env.repo, "bob@x.edu")

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"firstName": "Bob", "lastName": "B", "email": "BOB@x.edu", "password": "secret123",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := testutil.DecodeJSON(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User already exists with this email", body["error"])
}

func TestRegister_PasswordTooLong(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"firstName": "Bob", "lastName": "B", "email": "bob@x.edu", "password": strings.Repeat("Zq9", 30),
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password cannot exceed 72 bytes", testutil.DecodeJSON(t, rec)["error"])
}

func TestRoleGate(t *testing.T) {
	env := newEnv(t)
	testutil.NewTestUser(t, env.repo, "student@x.edu")
	testutil.NewTestUser(t, env.repo, "admin@x.edu", testutil.WithRole(models.RoleAdmin), testutil.WithStatus(models.StatusActive))

	rec := env.do(t, http.MethodGet, "/api/admin/dashboard", nil, env.login(t, "student@x.edu", testutil.TestPassword))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User role student is not authorized to access this route. Allowed roles: admin, coordinator", testutil.DecodeJSON(t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/admin/dashboard", nil, env.login(t, "admin@x.edu", testutil.TestPassword))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := testutil.DecodeJSON(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["totalUsers"])
}

func TestProtectedRoutes(t *testing.T) {
	env := newEnv(t)
	user := testutil.NewTestUser(t, env.repo, "bob@x.edu")
	tok := env.login(t, "bob@x.edu", testutil.TestPassword)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized to access this route", testutil.DecodeJSON(t, rec)["error"])
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, tok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob@x.edu", testutil.DecodeJSON(t, rec)["user"].(map[string]any)["email"])
	})

	t.Run("cookie", func(t *testing.T) {
		req := testutil.NewRequest(http.MethodGet, "/api/auth/me", nil, "")
		req.AddCookie(&http.Cookie{Name: "token", Value: tok})
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deactivated after login", func(t *testing.T) {
		require.NoError(t, env.repo.SetUserActive(t.Context(), user.ID, false))
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Account has been deactivated", testutil.DecodeJSON(t, rec)["error"])
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newEnv(t)
	testutil.NewTestUser(t, env.repo, "bob@x.edu")
	tok := env.login(t, "bob@x.edu", testutil.TestPassword)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	env := newEnv(t)
	testutil.NewTestUser(t, env.repo, "bob@x.edu")

	rec := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@x.edu"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "bob@x.edu"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resetToken := env.mailer.LastToken("reset", "bob@x.edu")
	require.NotEmpty(t, resetToken)

	rec = env.do(t, http.MethodPut, "/api/auth/reset-password/"+resetToken, map[string]string{"password": "n3w-passphrase"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, testutil.DecodeJSON(t, rec)["token"])

	rec = env.do(t, http.MethodPut, "/api/auth/reset-password/"+resetToken, map[string]string{"password": "other-passphrase"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.login(t, "bob@x.edu", "n3w-passphrase")
}

func TestAdminUserManagement(t *testing.T) {
	env := newEnv(t)
	testutil.NewTestUser(t, env.repo, "admin@x.edu", testutil.WithRole(models.RoleAdmin), testutil.WithStatus(models.StatusActive))
	bob := testutil.NewTestUser(t, env.repo, "bob@x.edu")
	tok := env.login(t, "admin@x.edu", testutil.TestPassword)

	rec := env.do(t, http.MethodGet, "/api/admin/users?membershipStatus=pending&limit=5", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := testutil.DecodeJSON(t, rec)["data"].(map[string]any)
	assert.Len(t, data["users"], 1)

	rec = env.do(t, http.MethodPut, "/api/admin/users/"+itoa(bob.ID)+"/membership", map[string]string{"status": "active"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := testutil.DecodeJSON(t, rec)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "member", user["role"])
	assert.Len(t, env.mailer.Sent(), 1)

	rec = env.do(t, http.MethodPut, "/api/admin/users/bulk", map[string]any{
		"userIds": []int64{bob.ID},
		"updates": map[string]any{"projectsCompleted": 2},
	}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1 users updated successfully", testutil.DecodeJSON(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/admin/export/users?format=csv", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=users-export.csv", rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Name,Email,Student ID"))

	rec = env.do(t, http.MethodDelete, "/api/admin/users/"+itoa(bob.ID), nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/admin/users/"+itoa(bob.ID), nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDepartmentsAndMembers(t *testing.T) {
	env := newEnv(t)
	dept := testutil.FirstDepartment(t, env.repo)
	member := testutil.NewTestUser(t, env.repo, "member@x.edu",
		testutil.WithRole(models.RoleMember), testutil.WithStatus(models.StatusActive),
		testutil.WithDepartment(dept.ID), testutil.Verified())
	other := testutil.NewTestUser(t, env.repo, "other@x.edu")
	tok := env.login(t, "member@x.edu", testutil.TestPassword)

	rec := env.do(t, http.MethodGet, "/api/departments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, testutil.DecodeJSON(t, rec)["count"])

	rec = env.do(t, http.MethodGet, "/api/departments/"+itoa(dept.ID)+"/members", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/departments/"+itoa(dept.ID)+"/members", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, testutil.DecodeJSON(t, rec)["count"])

	rec = env.do(t, http.MethodGet, "/api/departments/"+itoa(dept.ID+1)+"/members", nil, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/members", nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/members/"+itoa(member.ID), nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/members/"+itoa(other.ID), nil, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/departments", map[string]string{"name": "Robotics"}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, testutil.DecodeJSON(t, rec)["success"])
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
