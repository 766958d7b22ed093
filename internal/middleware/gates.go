// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/auth"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/policy"
)

// Gates run after Authenticate and may be chained in any order.

func gate(check func(c echo.Context, user *models.User) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := check(c, auth.User(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func action(a policy.Action) echo.MiddlewareFunc {
	return gate(func(_ echo.Context, user *models.User) error {
		return policy.Authorize(user, a, policy.Target{})
	})
}

// RequireRoles allows only the given roles.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	rule := policy.Rule{Roles: roles}
	return gate(func(_ echo.Context, user *models.User) error {
		return rule.Check(user, policy.Target{})
	})
}

// RequireAdmin allows admins and coordinators.
func RequireAdmin() echo.MiddlewareFunc {
	return action(policy.ActionAdministrate)
}

// RequireLeadership allows the club leadership roles.
func RequireLeadership() echo.MiddlewareFunc {
	return action(policy.ActionLead)
}

// RequireActiveMember allows member roles with an active membership.
func RequireActiveMember() echo.MiddlewareFunc {
	return action(policy.ActionActiveMember)
}

// RequireEmailVerified allows users with a verified email.
func RequireEmailVerified() echo.MiddlewareFunc {
	return action(policy.ActionVerifiedEmail)
}

// RequireClubMembership allows active and inactive members.
func RequireClubMembership() echo.MiddlewareFunc {
	return action(policy.ActionClubMember)
}

// RequireDepartmentAccess checks the department id in path parameter param.
func RequireDepartmentAccess(param string) echo.MiddlewareFunc {
	return gate(func(c echo.Context, user *models.User) error {
		var target policy.Target
		if id, ok := pathID(c, param); ok {
			target = policy.Department(id)
		}
		return policy.Authorize(user, policy.ActionDepartmentAccess, target)
	})
}

// RequireOwnership checks that the user id in path parameter param is the
// caller's own.
func RequireOwnership(param string) echo.MiddlewareFunc {
	return gate(func(c echo.Context, user *models.User) error {
		var target policy.Target
		if id, ok := pathID(c, param); ok {
			target = policy.Owner(id)
		}
		return policy.Authorize(user, policy.ActionOwnResource, target)
	})
}

func pathID(c echo.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	return id, err == nil
}
