// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/nutechnocrats/clubhub/internal/database"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
)

// TestPassword is the plaintext password of users created by NewTestUser.
const TestPassword = "secret123"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// UserOption customizes a fixture user before it is stored.
type UserOption func(*models.User)

// WithRole sets the fixture's role.
func WithRole(role models.Role) UserOption {
	return func(u *models.User) { u.Role = role }
}

// WithStatus sets the fixture's membership status.
func WithStatus(status models.MembershipStatus) UserOption {
	return func(u *models.User) { u.MembershipStatus = status }
}

// WithDepartment assigns the fixture to a department.
func WithDepartment(id int64) UserOption {
	return func(u *models.User) { u.DepartmentID = &id }
}

// WithStudentID sets the fixture's student id.
func WithStudentID(id string) UserOption {
	return func(u *models.User) { u.StudentID = &id }
}

// Inactive creates a deactivated fixture.
func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

// Verified creates a fixture with a verified email.
func Verified() UserOption {
	return func(u *models.User) { u.IsEmailVerified = true }
}

// NewTestUser creates a test user whose password is TestPassword.
func NewTestUser(t *testing.T, repo *repository.Repository, email string, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FirstName:          "Test",
		LastName:           "User",
		Email:              email,
		PasswordHash:       string(hash),
		IsActive:           true,
		EmailNotifications: true,
	}
	for _, opt := range opts {
		opt(user)
	}

	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// FirstDepartment returns one of the seeded departments.
func FirstDepartment(t *testing.T, repo *repository.Repository) models.Department {
	t.Helper()
	depts, err := repo.ListDepartments(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, depts)
	return depts[0]
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// JSONBody encodes v for use as a request body.
func JSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

// NewRequest creates an HTTP request for testing, optionally with a bearer token.
func NewRequest(method, path string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// DecodeJSON decodes a recorded response body into a generic map.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
