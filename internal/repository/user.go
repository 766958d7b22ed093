// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinovest/sqlx"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// CreateUser inserts a new user and reloads it so defaults are populated.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.MembershipStatus == "" {
		user.MembershipStatus = models.StatusPending
	}
	if user.Year == "" {
		user.Year = models.YearFirst
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			first_name, last_name, email, password_hash, student_id, year, major,
			phone, bio, linkedin_url, github_url, skills, role, membership_status,
			department_id, is_active, is_email_verified, email_notifications
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(user.FirstName), strings.TrimSpace(user.LastName), user.Email,
		user.PasswordHash, nullableString(user.StudentIDValue()), user.Year, user.Major,
		user.Phone, user.Bio, user.LinkedInURL, user.GitHubURL, user.Skills, string(user.Role),
		string(user.MembershipStatus), user.DepartmentID, boolInt(user.IsActive),
		boolInt(user.IsEmailVerified), boolInt(user.EmailNotifications),
	)
	if err != nil {
		return wrapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}

	created, err := r.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, models.NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByStudentID retrieves a user by student id.
func (r *Repository) GetUserByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE student_id = ?`, strings.TrimSpace(studentID))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// EmailExists checks whether an email is registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, models.NormalizeEmail(email))
	return count > 0, err
}

// StudentIDExists checks whether a student id is registered.
func (r *Repository) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE student_id = ?`, strings.TrimSpace(studentID))
	return count > 0, err
}

// UpdateLastLogin stamps the user's last login with the current time.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// UpdateUserPassword replaces a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id)
}

// SetUserActive enables or deactivates an account.
func (r *Repository) SetUserActive(ctx context.Context, id int64, active bool) error {
	return r.execOne(ctx,
		`UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(active), id)
}

// SetUserRole changes a user's role.
func (r *Repository) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	return r.execOne(ctx,
		`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(role), id)
}

// UpdateProfile applies the non-nil fields of update and returns the fresh user.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	var set setClause
	if update.FirstName != nil {
		set.add("first_name", strings.TrimSpace(*update.FirstName))
	}
	if update.LastName != nil {
		set.add("last_name", strings.TrimSpace(*update.LastName))
	}
	if update.Year != nil {
		set.add("year", *update.Year)
	}
	if update.Major != nil {
		set.add("major", strings.TrimSpace(*update.Major))
	}
	if update.Phone != nil {
		set.add("phone", strings.TrimSpace(*update.Phone))
	}
	if update.Bio != nil {
		set.add("bio", strings.TrimSpace(*update.Bio))
	}
	if update.LinkedInURL != nil {
		set.add("linkedin_url", strings.TrimSpace(*update.LinkedInURL))
	}
	if update.GitHubURL != nil {
		set.add("github_url", strings.TrimSpace(*update.GitHubURL))
	}
	if update.Skills != nil {
		set.add("skills", models.StringList(*update.Skills))
	}
	if update.DepartmentID != nil {
		set.add("department_id", *update.DepartmentID)
	}
	if update.EmailNotifications != nil {
		set.add("email_notifications", boolInt(*update.EmailNotifications))
	}

	if !set.empty() {
		args := append(set.args, id)
		if err := r.execOne(ctx, `UPDATE users SET `+set.sql()+` WHERE id = ?`, args...); err != nil {
			return nil, err
		}
	}
	return r.GetUserByID(ctx, id)
}

// UpdateUserFields applies an administrator's changes and returns the fresh user.
func (r *Repository) UpdateUserFields(ctx context.Context, id int64, update models.AdminUserUpdate) (*models.User, error) {
	set := adminSetClause(update)
	if !set.empty() {
		args := append(set.args, id)
		if err := r.execOne(ctx, `UPDATE users SET `+set.sql()+` WHERE id = ?`, args...); err != nil {
			return nil, err
		}
	}
	return r.GetUserByID(ctx, id)
}

// BulkUpdateUsers applies the same change to many users. It reports how many
// of the ids exist and how many rows were written.
func (r *Repository) BulkUpdateUsers(ctx context.Context, ids []int64, update models.AdminUserUpdate) (matched, modified int64, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return 0, 0, err
	}
	if err := r.db.GetContext(ctx, &matched, r.db.Rebind(countQuery), countArgs...); err != nil {
		return 0, 0, err
	}

	set := adminSetClause(update)
	if set.empty() || matched == 0 {
		return matched, 0, nil
	}

	query, args, err := sqlx.In(`UPDATE users SET `+set.sql()+` WHERE id IN (?)`, append(set.args, ids)...)
	if err != nil {
		return 0, 0, err
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, 0, wrapError(err)
	}
	modified, err = result.RowsAffected()
	return matched, modified, err
}

func adminSetClause(update models.AdminUserUpdate) setClause {
	var set setClause
	if update.FirstName != nil {
		set.add("first_name", strings.TrimSpace(*update.FirstName))
	}
	if update.LastName != nil {
		set.add("last_name", strings.TrimSpace(*update.LastName))
	}
	if update.StudentID != nil {
		set.add("student_id", nullableString(*update.StudentID))
	}
	if update.Year != nil {
		set.add("year", *update.Year)
	}
	if update.ProjectsCompleted != nil {
		set.add("projects_completed", *update.ProjectsCompleted)
	}
	if update.Role != nil {
		set.add("role", string(*update.Role))
	}
	if update.MembershipStatus != nil {
		set.add("membership_status", string(*update.MembershipStatus))
	}
	if update.DepartmentID != nil {
		set.add("department_id", *update.DepartmentID)
	}
	if update.IsActive != nil {
		set.add("is_active", boolInt(*update.IsActive))
	}
	if update.IsEmailVerified != nil {
		set.add("is_email_verified", boolInt(*update.IsEmailVerified))
	}
	return set
}

// SetMembershipStatus records a membership decision. Approving a student
// promotes them to member.
func (r *Repository) SetMembershipStatus(ctx context.Context, id int64, status models.MembershipStatus) (*models.User, error) {
	err := r.execOne(ctx, `
		UPDATE users SET
			membership_status = ?,
			role = CASE WHEN ? = 'active' AND role = 'student' THEN 'member' ELSE role END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(status), string(status), id)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// DeleteUser deletes a user by their ID.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// ListUsers returns one page of users matching filter, newest first, and the
// total number of matches.
func (r *Repository) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	filter.Normalize()
	where, args := userWhere(filter)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	query := `SELECT * FROM users` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &users, query, append(args, filter.Limit, filter.Offset())...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AllUsers returns every user, newest first.
func (r *Repository) AllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at DESC, id DESC`)
	return users, err
}

func userWhere(filter models.UserFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(filter.Role))
	}
	if filter.Status != "" {
		conds = append(conds, "membership_status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DepartmentID != nil {
		conds = append(conds, "department_id = ?")
		args = append(args, *filter.DepartmentID)
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, boolInt(*filter.IsActive))
	}
	if filter.IsEmailVerified != nil {
		conds = append(conds, "is_email_verified = ?")
		args = append(args, boolInt(*filter.IsEmailVerified))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := likePattern(term)
		conds = append(conds, `(first_name LIKE ? ESCAPE '\' OR last_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR student_id LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// CountAdmins returns the number of admin users.
func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = ?`, string(models.RoleAdmin))
	return count, err
}

// execOne runs a statement that must touch exactly one row.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
