// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the JSON HTTP handlers of the API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
)

const (
	MsgInvalidBody      = "Invalid request body"
	MsgResourceNotFound = "Resource not found"
)

// Handlers contains the handlers that only need the repository.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health reports whether the server and its database are reachable.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// NotFound answers unknown routes.
func (h *Handlers) NotFound(c echo.Context) error {
	return apperror.NotFound("Not found - " + c.Request().URL.Path)
}

// bind decodes the JSON body into v. Path and query parameters are ignored.
func bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return apperror.Validation(MsgInvalidBody)
	}
	return nil
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(MsgResourceNotFound)
	}
	return id, nil
}
