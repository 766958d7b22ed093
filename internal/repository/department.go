// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// CreateDepartment inserts a department, deriving the slug when empty.
func (r *Repository) CreateDepartment(ctx context.Context, dept *models.Department) error {
	dept.Name = strings.TrimSpace(dept.Name)
	if dept.Slug == "" {
		dept.Slug = models.Slugify(dept.Name)
	}
	if dept.Color == "" {
		dept.Color = "#2563eb"
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (name, slug, description, color) VALUES (?, ?, ?, ?)`,
		dept.Name, dept.Slug, dept.Description, dept.Color)
	if err != nil {
		return wrapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read department id: %w", err)
	}

	created, err := r.GetDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	*dept = *created
	return nil
}

// GetDepartmentByID retrieves a department by ID.
func (r *Repository) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, `SELECT * FROM departments WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &dept, nil
}

// ListDepartments returns all departments ordered by name.
func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	depts := []models.Department{}
	err := r.db.SelectContext(ctx, &depts, `SELECT * FROM departments ORDER BY name`)
	return depts, err
}

// DepartmentExists checks whether a department id resolves.
func (r *Repository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM departments WHERE id = ?`, id)
	return count > 0, err
}

// ListDepartmentMembers returns the active accounts of a department.
func (r *Repository) ListDepartmentMembers(ctx context.Context, id int64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT * FROM users WHERE department_id = ? AND is_active = 1 ORDER BY last_name, first_name`, id)
	return users, err
}

// DepartmentNames maps department ids to names.
func (r *Repository) DepartmentNames(ctx context.Context) (map[int64]string, error) {
	depts, err := r.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	return names, nil
}
