// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateStudentID is returned when the student id is already registered.
	ErrDuplicateStudentID = errors.New("student id already registered")
	// ErrDuplicateDepartment is returned when a department name or slug is taken.
	ErrDuplicateDepartment = errors.New("department already exists")
)

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying connection for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "users.email"):
			return ErrDuplicateEmail
		case strings.Contains(msg, "users.student_id"):
			return ErrDuplicateStudentID
		case strings.Contains(msg, "departments."):
			return ErrDuplicateDepartment
		}
	}
	return err
}

// setClause collects column assignments for partial updates.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, value any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, value)
}

func (s *setClause) empty() bool {
	return len(s.cols) == 0
}

// sql renders the assignments and always touches updated_at.
func (s *setClause) sql() string {
	return strings.Join(append(s.cols, "updated_at = CURRENT_TIMESTAMP"), ", ")
}

// nullableString maps an empty string to NULL.
func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.TrimSpace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// likePattern builds a LIKE pattern matching term anywhere, escaping wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
