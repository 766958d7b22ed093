// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package policy decides which users may perform which actions.
package policy

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// Role groups used by the rule table and the routes.
var (
	AdminRoles = []models.Role{models.RoleAdmin, models.RoleCoordinator}

	LeadershipRoles = []models.Role{
		models.RoleAdmin, models.RoleCoordinator, models.RolePresident,
		models.RoleVicePresident, models.RoleDepartmentHead,
	}

	ActiveMemberRoles = []models.Role{
		models.RoleMember, models.RoleTeamLead, models.RoleDepartmentHead,
		models.RoleVicePresident, models.RolePresident, models.RoleAdmin, models.RoleCoordinator,
	}

	// DepartmentBypassRoles may see every department.
	DepartmentBypassRoles = []models.Role{models.RoleAdmin, models.RoleCoordinator, models.RolePresident}

	// OwnershipBypassRoles may act on resources owned by other users.
	OwnershipBypassRoles = AdminRoles

	// ClubMemberStatuses may view member content. Inactive members keep read access.
	ClubMemberStatuses = []models.MembershipStatus{models.StatusActive, models.StatusInactive}
)

// Action names a guarded operation.
type Action string

const (
	ActionAdministrate     Action = "administrate"
	ActionLead             Action = "lead"
	ActionActiveMember     Action = "active_member"
	ActionDepartmentAccess Action = "department_access"
	ActionOwnResource      Action = "own_resource"
	ActionVerifiedEmail    Action = "verified_email"
	ActionClubMember       Action = "club_member"
)

// Target identifies the resource an action is applied to.
type Target struct {
	DepartmentID *int64
	OwnerID      *int64
}

// Department targets a department.
func Department(id int64) Target {
	return Target{DepartmentID: &id}
}

// Owner targets a resource owned by a user.
func Owner(id int64) Target {
	return Target{OwnerID: &id}
}

// Rule lists the requirements of an action. Empty role and status lists
// allow everyone. Bypass roles skip the department and owner checks only.
type Rule struct { //nolint:govet // fieldalignment not critical
	Roles           []models.Role
	Statuses        []models.MembershipStatus
	Bypass          []models.Role
	MatchDepartment bool
	MatchOwner      bool
	EmailVerified   bool
	Message         string
	Code            string
}

// Rules is the authorization table.
var Rules = map[Action]Rule{
	ActionAdministrate: {Roles: AdminRoles},
	ActionLead:         {Roles: LeadershipRoles},
	ActionActiveMember: {
		Roles:    ActiveMemberRoles,
		Statuses: []models.MembershipStatus{models.StatusActive},
		Message:  "Active membership required",
	},
	ActionDepartmentAccess: {
		Bypass:          DepartmentBypassRoles,
		MatchDepartment: true,
		Message:         "Not authorized to access this department",
	},
	ActionOwnResource: {
		Bypass:     OwnershipBypassRoles,
		MatchOwner: true,
		Message:    "Not authorized to access this resource",
	},
	ActionVerifiedEmail: {
		EmailVerified: true,
		Message:       "Email verification required",
		Code:          apperror.CodeVerifyEmail,
	},
	ActionClubMember: {
		Statuses: ClubMemberStatuses,
		Message:  "Club membership required",
	},
}

// Authorize checks user against the rule for action. It returns an
// Unauthorized error without a user and a Forbidden error on violation.
func Authorize(user *models.User, action Action, target Target) error {
	rule, ok := Rules[action]
	if !ok {
		return apperror.Internal("Server Error", fmt.Errorf("unknown policy action %q", action))
	}
	return rule.Check(user, target)
}

// Check applies the rule to user and target.
func (r Rule) Check(user *models.User, target Target) error {
	if user == nil {
		return apperror.Unauthorized("Not authorized to access this route")
	}

	if len(r.Roles) > 0 && !lo.Contains(r.Roles, user.Role) {
		allowed := lo.Map(r.Roles, func(role models.Role, _ int) string { return string(role) })
		return r.deny(fmt.Sprintf("User role %s is not authorized to access this route. Allowed roles: %s",
			user.Role, strings.Join(allowed, ", ")))
	}
	if len(r.Statuses) > 0 && !lo.Contains(r.Statuses, user.MembershipStatus) {
		return r.deny("Membership status " + string(user.MembershipStatus) + " is not allowed")
	}
	if r.EmailVerified && !user.IsEmailVerified {
		return r.deny("Email verification required")
	}

	if lo.Contains(r.Bypass, user.Role) {
		return nil
	}
	if r.MatchDepartment && (target.DepartmentID == nil || !user.InDepartment(*target.DepartmentID)) {
		return r.deny("Not authorized to access this department")
	}
	if r.MatchOwner && (target.OwnerID == nil || *target.OwnerID != user.ID) {
		return r.deny("Not authorized to access this resource")
	}
	return nil
}

// deny builds the Forbidden error, preferring the rule's own message.
func (r Rule) deny(fallback string) error {
	msg := r.Message
	if msg == "" {
		msg = fallback
	}
	err := apperror.Forbidden(msg)
	if r.Code != "" {
		return err.WithCode(r.Code)
	}
	return err
}

// HasRole reports whether user holds one of roles.
func HasRole(user *models.User, roles ...models.Role) bool {
	return user != nil && lo.Contains(roles, user.Role)
}
