// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

const recentUserLimit = 5

// UserStats aggregates the dashboard counters in a handful of queries.
func (r *Repository) UserStats(ctx context.Context) (*models.UserStats, error) {
	var totals struct {
		Total    int64 `db:"total"`
		Active   int64 `db:"active"`
		Verified int64 `db:"verified"`
		Members  int64 `db:"members"`
		Pending  int64 `db:"pending"`
		Recent   int64 `db:"recent"`
	}
	err := r.db.GetContext(ctx, &totals, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(is_active), 0) AS active,
			COALESCE(SUM(is_email_verified), 0) AS verified,
			COALESCE(SUM(membership_status = 'active' AND is_active = 1), 0) AS members,
			COALESCE(SUM(membership_status = 'pending'), 0) AS pending,
			COALESCE(SUM(created_at >= datetime('now', '-30 days')), 0) AS recent
		FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	stats := &models.UserStats{
		Total:               totals.Total,
		Active:              totals.Active,
		Inactive:            totals.Total - totals.Active,
		Verified:            totals.Verified,
		Unverified:          totals.Total - totals.Verified,
		ActiveMembers:       totals.Members,
		PendingApplications: totals.Pending,
		RecentRegistrations: totals.Recent,
	}

	if err := r.db.GetContext(ctx, &stats.TotalDepartments, `SELECT COUNT(*) FROM departments`); err != nil {
		return nil, fmt.Errorf("failed to count departments: %w", err)
	}

	groups := []struct {
		dest  *[]models.Count
		query string
	}{
		{&stats.ByRole, `SELECT role AS key, COUNT(*) AS count FROM users GROUP BY role ORDER BY count DESC, key`},
		{&stats.ByStatus, `SELECT membership_status AS key, COUNT(*) AS count FROM users GROUP BY membership_status ORDER BY count DESC, key`},
		{&stats.ByDepartment, `
			SELECT COALESCE(d.name, 'Unassigned') AS key, COUNT(*) AS count
			FROM users u LEFT JOIN departments d ON d.id = u.department_id
			GROUP BY key ORDER BY count DESC, key`},
		{&stats.MonthlyGrowth, `
			SELECT strftime('%Y-%m', created_at) AS key, COUNT(*) AS count
			FROM users WHERE created_at >= datetime('now', '-180 days')
			GROUP BY key ORDER BY key`},
	}
	for _, g := range groups {
		*g.dest = []models.Count{}
		if err := r.db.SelectContext(ctx, g.dest, g.query); err != nil {
			return nil, fmt.Errorf("failed to aggregate users: %w", err)
		}
	}

	stats.RecentUsers = []models.User{}
	err = r.db.SelectContext(ctx, &stats.RecentUsers,
		`SELECT * FROM users ORDER BY created_at DESC, id DESC LIMIT ?`, recentUserLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}

	return stats, nil
}
