// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/services/admin"
)

// AdminHandlers contains the administrator endpoints. Every route is mounted
// behind authentication and the admin role gate.
type AdminHandlers struct {
	admin *admin.Service
}

// NewAdmin creates a new AdminHandlers instance.
func NewAdmin(svc *admin.Service) *AdminHandlers {
	return &AdminHandlers{admin: svc}
}

// Dashboard returns the user statistics.
func (h *AdminHandlers) Dashboard(c echo.Context) error {
	stats, err := h.admin.DashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// ListUsers returns a filtered page of users.
func (h *AdminHandlers) ListUsers(c echo.Context) error {
	filter, err := userFilter(c)
	if err != nil {
		return err
	}

	page, err := h.admin.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    page,
	})
}

// UpdateUser changes one user.
func (h *AdminHandlers) UpdateUser(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var update models.AdminUserUpdate
	if err := bind(c, &update); err != nil {
		return err
	}

	user, err := h.admin.UpdateUser(c.Request().Context(), actor, id, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated successfully",
		"data":    map[string]any{"user": user},
	})
}

// DeleteUser removes a user.
func (h *AdminHandlers) DeleteUser(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.admin.DeleteUser(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "User deleted successfully",
	})
}

type bulkUpdateRequest struct {
	UserIDs []int64                `json:"userIds"`
	Updates models.AdminUserUpdate `json:"updates"`
}

// BulkUpdateUsers applies one change to several users.
func (h *AdminHandlers) BulkUpdateUsers(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req bulkUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.admin.BulkUpdateUsers(c.Request().Context(), actor, req.UserIDs, req.Updates)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d users updated successfully", result.Modified),
		"data":    result,
	})
}

type membershipRequest struct {
	Status models.MembershipStatus `json:"status"`
	Reason string                  `json:"reason"`
}

// UpdateMembership records a membership decision.
func (h *AdminHandlers) UpdateMembership(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req membershipRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.admin.UpdateMembershipStatus(c.Request().Context(), id, req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Membership status updated to " + string(req.Status),
		"data":    map[string]any{"user": user},
	})
}

// ExportUsers downloads every user as csv or json.
func (h *AdminHandlers) ExportUsers(c echo.Context) error {
	file, err := h.admin.ExportUsers(c.Request().Context(), c.QueryParam("format"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+file.Format.Filename())
	return c.Blob(http.StatusOK, file.Format.ContentType(), file.Data)
}

// SendNotification emails a group of users.
func (h *AdminHandlers) SendNotification(c echo.Context) error {
	var req admin.NotificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.admin.SendBulkNotification(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": report.Message(),
		"data":    report,
	})
}

// userFilter reads the listing filter from the query string.
func userFilter(c echo.Context) (models.UserFilter, error) {
	var (
		filter models.UserFilter
		role   string
		status string
	)
	err := echo.QueryParamsBinder(c).
		Int("page", &filter.Page).
		Int("limit", &filter.Limit).
		String("role", &role).
		String("membershipStatus", &status).
		String("search", &filter.Search).
		BindError()
	if err != nil {
		return filter, apperror.Validation("Invalid query parameters")
	}
	filter.Role = models.Role(role)
	filter.Status = models.MembershipStatus(status)

	if dept := c.QueryParam("department"); dept != "" {
		id, err := strconv.ParseInt(dept, 10, 64)
		if err != nil {
			return filter, apperror.Validation("Invalid department filter")
		}
		filter.DepartmentID = &id
	}
	filter.IsActive = queryBool(c, "isActive")
	filter.IsEmailVerified = queryBool(c, "isEmailVerified")
	return filter, nil
}

// queryBool returns nil when the parameter is absent and true only for "true".
func queryBool(c echo.Context, name string) *bool {
	if !c.QueryParams().Has(name) {
		return nil
	}
	v := c.QueryParam(name) == "true"
	return &v
}
