// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"github.com/vinovest/sqlx"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// ListRecipients resolves a bulk notification selector to active users.
func (r *Repository) ListRecipients(ctx context.Context, sel models.RecipientSelector) ([]models.User, error) {
	var (
		query string
		args  []any
	)

	switch sel.Kind {
	case models.RecipientsAll:
		query = `SELECT * FROM users WHERE is_active = 1`
	case models.RecipientsMembers:
		query = `SELECT * FROM users WHERE is_active = 1 AND membership_status = ?`
		args = []any{string(models.StatusActive)}
	case models.RecipientsStudents:
		query = `SELECT * FROM users WHERE is_active = 1 AND role = ?`
		args = []any{string(models.RoleStudent)}
	case models.RecipientsDepartment:
		query = `SELECT * FROM users WHERE is_active = 1 AND department_id = ?`
		args = []any{sel.DepartmentID}
	case models.RecipientsIDs:
		if len(sel.UserIDs) == 0 {
			return []models.User{}, nil
		}
		q, inArgs, err := sqlx.In(`SELECT * FROM users WHERE is_active = 1 AND id IN (?)`, sel.UserIDs)
		if err != nil {
			return nil, err
		}
		query, args = r.db.Rebind(q), inArgs
	default:
		return nil, fmt.Errorf("unknown recipient kind %q", sel.Kind)
	}

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query+` ORDER BY id`, args...); err != nil {
		return nil, err
	}
	return users, nil
}
