// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
)

// MemberHandlers serves the member directory.
type MemberHandlers struct {
	repo *repository.Repository
}

// NewMembers creates a new MemberHandlers instance.
func NewMembers(repo *repository.Repository) *MemberHandlers {
	return &MemberHandlers{repo: repo}
}

// List returns a page of active club members.
func (h *MemberHandlers) List(c echo.Context) error {
	active := true
	filter := models.UserFilter{Status: models.StatusActive, IsActive: &active}
	err := echo.QueryParamsBinder(c).
		Int("page", &filter.Page).
		Int("limit", &filter.Limit).
		String("search", &filter.Search).
		BindError()
	if err != nil {
		return apperror.Validation("Invalid query parameters")
	}
	filter.Normalize()

	members, total, err := h.repo.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"members":    members,
		"pagination": models.NewPagination(filter.Page, filter.Limit, total),
	})
}

// Get returns one member profile.
func (h *MemberHandlers) Get(c echo.Context) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	member, err := h.repo.GetUserByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("User not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"member":  member,
	})
}
