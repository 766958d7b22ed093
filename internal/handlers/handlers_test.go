// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/nutechnocrats/clubhub/internal/handlers"
	"codeberg.org/nutechnocrats/clubhub/internal/testutil"
)

func TestNew(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	h := handlers.New(repo)

	assert.NotNil(t, h)
}

func TestHealth(t *testing.T) {
	h := handlers.New(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	require.NoError(t, db.Close())
	h := handlers.New(repo)

	c, rec := testutil.NewEchoContext(echo.New(), http.MethodGet, "/health", nil)
	require.NoError(t, h.Health(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDepartments(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.NewDepartments(repo)
	e := echo.New()

	t.Run("list", func(t *testing.T) {
		c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/departments", nil)
		require.NoError(t, h.List(c))

		body := testutil.DecodeJSON(t, rec)
		assert.EqualValues(t, 5, body["count"])
	})

	t.Run("unknown id", func(t *testing.T) {
		c, _ := testutil.NewEchoContext(e, http.MethodGet, "/api/departments/999", nil)
		c.SetParamNames("departmentId")
		c.SetParamValues("999")

		err := h.Get(c)
		assert.ErrorContains(t, err, handlers.MsgDepartmentNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		c, _ := testutil.NewEchoContext(e, http.MethodGet, "/api/departments/abc", nil)
		c.SetParamNames("departmentId")
		c.SetParamValues("abc")

		err := h.Get(c)
		assert.ErrorContains(t, err, handlers.MsgResourceNotFound)
	})

	t.Run("create", func(t *testing.T) {
		body := testutil.JSONBody(t, map[string]string{"name": " Robotics ", "color": "#112233"})
		c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/departments", body)
		require.NoError(t, h.Create(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		dept := testutil.DecodeJSON(t, rec)["department"].(map[string]any)
		assert.Equal(t, "Robotics", dept["name"])
		assert.Equal(t, "robotics", dept["slug"])
	})

	t.Run("create duplicate", func(t *testing.T) {
		body := testutil.JSONBody(t, map[string]string{"name": "Robotics"})
		c, _ := testutil.NewEchoContext(e, http.MethodPost, "/api/departments", body)

		assert.ErrorContains(t, h.Create(c), "Department already exists")
	})

	t.Run("create invalid", func(t *testing.T) {
		body := testutil.JSONBody(t, map[string]string{"name": "", "color": "blue"})
		c, _ := testutil.NewEchoContext(e, http.MethodPost, "/api/departments", body)

		err := h.Create(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Department name is required")
	})

	t.Run("malformed body", func(t *testing.T) {
		c, _ := testutil.NewEchoContext(e, http.MethodPost, "/api/departments", strings.NewReader("{"))

		assert.ErrorContains(t, h.Create(c), handlers.MsgInvalidBody)
	})
}
