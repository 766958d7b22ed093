// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
)

const MsgDepartmentNotFound = "Department not found"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DepartmentHandlers serves the department directory.
type DepartmentHandlers struct {
	repo *repository.Repository
}

// NewDepartments creates a new DepartmentHandlers instance.
func NewDepartments(repo *repository.Repository) *DepartmentHandlers {
	return &DepartmentHandlers{repo: repo}
}

// List returns every department.
func (h *DepartmentHandlers) List(c echo.Context) error {
	depts, err := h.repo.ListDepartments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(depts),
		"departments": depts,
	})
}

// Get returns one department.
func (h *DepartmentHandlers) Get(c echo.Context) error {
	dept, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"department": dept,
	})
}

// Members lists the users of a department.
func (h *DepartmentHandlers) Members(c echo.Context) error {
	dept, err := h.load(c)
	if err != nil {
		return err
	}

	members, err := h.repo.ListDepartmentMembers(c.Request().Context(), dept.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(members),
		"members": members,
	})
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (r *departmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required.Error("Department name is required"), validation.Length(2, 50)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.Color, validation.Match(hexColor).Error("Color must be a hex value like #2563eb")),
	)
}

// Create adds a department.
func (h *DepartmentHandlers) Create(c echo.Context) error {
	var req departmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := req.Validate(); err != nil {
		return apperror.Validation(err.Error())
	}

	dept := &models.Department{Name: req.Name, Description: req.Description, Color: req.Color}
	if err := h.repo.CreateDepartment(c.Request().Context(), dept); err != nil {
		if errors.Is(err, repository.ErrDuplicateDepartment) {
			return apperror.Duplicate("Department already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"success":    true,
		"department": dept,
	})
}

func (h *DepartmentHandlers) load(c echo.Context) (*models.Department, error) {
	id, err := paramID(c, "departmentId")
	if err != nil {
		return nil, err
	}
	dept, err := h.repo.GetDepartmentByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(MsgDepartmentNotFound)
	}
	return dept, err
}
