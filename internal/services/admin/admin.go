// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package admin implements the administrator operations on club accounts.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/samber/lo"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/export"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
)

// Messages returned to administrators.
const (
	MsgUserNotFound      = "User not found"
	MsgInvalidDepartment = "Invalid department selected"
	MsgOwnRole           = "Cannot change your own admin role"
	MsgOwnAccount        = "Cannot delete your own account"
	MsgUserIDsRequired   = "User IDs array is required"
	MsgNoChanges         = "No fields to update"
	MsgInvalidMembership = "Invalid membership status"
	MsgInvalidFormat     = "Invalid format. Use csv or json"
	MsgStudentIDTaken    = "Student ID is already registered"
	MsgSubjectRequired   = "Subject and content are required"
	MsgInvalidRecipients = "Invalid recipients parameter"
	MsgNoRecipients      = "No recipients found"
)

// DefaultSendConcurrency is the number of bulk emails in flight at once.
const DefaultSendConcurrency = 4

// DecisionStatuses are the membership states an administrator may set.
var DecisionStatuses = []models.MembershipStatus{
	models.StatusActive, models.StatusInactive, models.StatusSuspended, models.StatusRejected,
}

// Notifier delivers membership decisions and announcements.
type Notifier interface {
	SendMembershipDecision(ctx context.Context, user *models.User, status models.MembershipStatus, reason string) error
	SendNotification(ctx context.Context, user *models.User, subject, content string) error
}

type Service struct {
	repo        *repository.Repository
	notifier    Notifier
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency bounds the number of emails sent at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo *repository.Repository, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		notifier:    notifier,
		concurrency: DefaultSendConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DashboardStats returns the aggregate user statistics.
func (s *Service) DashboardStats(ctx context.Context) (*models.UserStats, error) {
	stats, err := s.repo.UserStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []models.User     `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

// ListUsers returns a filtered, paginated user list.
func (s *Service) ListUsers(ctx context.Context, filter models.UserFilter) (*UserPage, error) {
	filter.Normalize()
	users, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserPage{Users: users, Pagination: models.NewPagination(filter.Page, filter.Limit, total)}, nil
}

// UpdateUser applies an administrator's changes to one user.
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, id int64, update models.AdminUserUpdate) (*models.User, error) {
	if err := s.checkUpdate(ctx, actor, []int64{id}, update); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateUserFields(ctx, id, update)
	if err != nil {
		return nil, s.mapError(err)
	}

	slog.Info("user_updated", "actor_id", actor.ID, "user_id", id)
	return user, nil
}

// DeleteUser removes an account other than the actor's own.
func (s *Service) DeleteUser(ctx context.Context, actor *models.User, id int64) error {
	if actor.ID == id {
		return apperror.Validation(MsgOwnAccount)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return s.mapError(err)
	}

	slog.Info("user_deleted", "actor_id", actor.ID, "user_id", id)
	return nil
}

// BulkResult reports the outcome of a bulk update.
type BulkResult struct {
	Matched  int64 `json:"matchedCount"`
	Modified int64 `json:"modifiedCount"`
}

// BulkUpdateUsers applies the same change to several users.
func (s *Service) BulkUpdateUsers(ctx context.Context, actor *models.User, ids []int64, update models.AdminUserUpdate) (*BulkResult, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, apperror.Validation(MsgUserIDsRequired)
	}
	if update.StudentID != nil && len(ids) > 1 {
		return nil, apperror.Validation("Student ID cannot be set on several users")
	}
	if err := s.checkUpdate(ctx, actor, ids, update); err != nil {
		return nil, err
	}

	matched, modified, err := s.repo.BulkUpdateUsers(ctx, ids, update)
	if err != nil {
		return nil, s.mapError(err)
	}

	slog.Info("users_bulk_updated", "actor_id", actor.ID, "matched", matched, "modified", modified)
	return &BulkResult{Matched: matched, Modified: modified}, nil
}

func (s *Service) checkUpdate(ctx context.Context, actor *models.User, ids []int64, update models.AdminUserUpdate) error {
	if update.Empty() {
		return apperror.Validation(MsgNoChanges)
	}
	if err := validateUpdate(&update); err != nil {
		return apperror.Validation(err.Error())
	}
	if update.Role != nil && *update.Role != models.RoleAdmin && lo.Contains(ids, actor.ID) {
		return apperror.Validation(MsgOwnRole)
	}
	if update.DepartmentID != nil {
		exists, err := s.repo.DepartmentExists(ctx, *update.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to check department: %w", err)
		}
		if !exists {
			return apperror.Validation(MsgInvalidDepartment)
		}
	}
	return nil
}

func validateUpdate(u *models.AdminUserUpdate) error {
	return validation.ValidateStruct(u,
		validation.Field(&u.FirstName, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&u.LastName, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&u.Year, validation.In(lo.ToAnySlice(models.Years)...).Error("Invalid academic year")),
		validation.Field(&u.ProjectsCompleted, validation.Min(0)),
		validation.Field(&u.Role, validation.By(func(v any) error {
			if r, ok := v.(*models.Role); ok && r != nil && !r.Valid() {
				return errors.New("Invalid role")
			}
			return nil
		})),
		validation.Field(&u.MembershipStatus, validation.By(func(v any) error {
			if st, ok := v.(*models.MembershipStatus); ok && st != nil && !st.Valid() {
				return errors.New("Invalid membership status")
			}
			return nil
		})),
	)
}

// UpdateMembershipStatus records a membership decision and tells the member.
// Approval promotes students to members. Email failures are only logged.
func (s *Service) UpdateMembershipStatus(ctx context.Context, id int64, status models.MembershipStatus, reason string) (*models.User, error) {
	if !lo.Contains(DecisionStatuses, status) {
		return nil, apperror.Validation(MsgInvalidMembership)
	}

	user, err := s.repo.SetMembershipStatus(ctx, id, status)
	if err != nil {
		return nil, s.mapError(err)
	}
	slog.Info("membership_updated", "user_id", id, "status", string(status))

	if err := s.notifier.SendMembershipDecision(ctx, user, status, reason); err != nil {
		slog.Error("email_send_failed", "user_id", id, "kind", "membership", "error", err)
	}
	return user, nil
}

// ExportUsers renders every user as csv or json.
func (s *Service) ExportUsers(ctx context.Context, format string) (*export.File, error) {
	f, ok := export.ParseFormat(format)
	if !ok {
		return nil, apperror.Validation(MsgInvalidFormat)
	}

	users, err := s.repo.AllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	departments, err := s.repo.DepartmentNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}

	file, err := export.Render(f, users, departments, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return file, nil
}

func (s *Service) mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(MsgUserNotFound)
	case errors.Is(err, repository.ErrDuplicateStudentID):
		return apperror.Duplicate(MsgStudentIDTaken)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperror.Duplicate("User already exists with this email")
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}
}
