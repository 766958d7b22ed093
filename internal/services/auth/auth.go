// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration, login and the email token flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
	"codeberg.org/nutechnocrats/clubhub/internal/services/token"
)

// Messages shared with the HTTP layer.
const (
	MsgInvalidCredentials  = "Invalid credentials"
	MsgAccountDeactivated  = "Account has been deactivated"
	MsgEmailTaken          = "User already exists with this email"
	MsgStudentIDTaken      = "Student ID is already registered"
	MsgInvalidDepartment   = "Invalid department selected"
	MsgInvalidToken        = "Invalid or expired token"
	MsgEmailNotSent        = "Email could not be sent"
	MsgAlreadyVerified     = "Email is already verified"
	MsgNoUserWithEmail     = "No user found with this email"
	MsgWrongPassword       = "Current password is incorrect"
	MsgDepartmentLocked    = "Department can only be changed while your application is pending"
	MsgRegistrationSuccess = "Registration successful! Please check your email to verify your account."
)

// Notifier delivers the account emails.
type Notifier interface {
	SendVerification(ctx context.Context, user *models.User, token string) error
	SendPasswordReset(ctx context.Context, user *models.User, token string) error
}

// Session is a signed token together with the user it was issued for.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Service struct {
	repo      *repository.Repository
	hasher    *Hasher
	tokens    *token.Service
	notifier  Notifier
	passwords *PasswordValidator
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for email token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPasswordValidator replaces the default password policy.
func WithPasswordValidator(v *PasswordValidator) Option {
	return func(s *Service) { s.passwords = v }
}

func NewService(repo *repository.Repository, hasher *Hasher, tokens *token.Service, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  notifier,
		passwords: DefaultPasswordValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens returns the issuer used to sign sessions.
func (s *Service) Tokens() *token.Service {
	return s.tokens
}

// Register creates a pending account and sends the verification email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if issues := s.passwords.Validate(in.Password, in.FirstName, in.LastName, emailLocalPart(in.Email)); len(issues) > 0 {
		return nil, apperror.Validation(joinIssues(issues))
	}

	exists, err := s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, apperror.Duplicate(MsgEmailTaken)
	}
	if in.StudentID != "" {
		taken, err := s.repo.StudentIDExists(ctx, in.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check student id: %w", err)
		}
		if taken {
			return nil, apperror.Duplicate(MsgStudentIDTaken)
		}
	}
	if err := s.checkDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Email:              in.Email,
		PasswordHash:       hash,
		Year:               in.Year,
		Major:              strings.TrimSpace(in.Major),
		Phone:              in.Phone,
		Bio:                strings.TrimSpace(in.Bio),
		LinkedInURL:        in.LinkedInURL,
		GitHubURL:          in.GitHubURL,
		Skills:             in.Skills,
		Role:               models.RoleStudent,
		MembershipStatus:   models.StatusPending,
		DepartmentID:       in.DepartmentID,
		IsActive:           true,
		EmailNotifications: true,
	}
	if in.StudentID != "" {
		user.StudentID = &in.StudentID
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, duplicateError(err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	s.sendVerification(ctx, user)
	return user, nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, apperror.Validation("Please provide an email and password")
	}
	email := models.NormalizeEmail(in.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(ctx, in.Password)
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, apperror.InvalidCredentials(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, apperror.InvalidCredentials(MsgInvalidCredentials)
	}

	if !user.IsActive {
		slog.Warn("login_failed", "email", email, "reason", "account_deactivated")
		return nil, apperror.Unauthorized(MsgAccountDeactivated).WithCode(apperror.CodeAccountDeactivated)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	if user, err = s.repo.GetUserByID(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return s.session(user)
}

// ForgotPassword stores a reset token and mails the link. If the mail cannot
// be sent the token is removed again.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return apperror.Validation("Please provide an email")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(MsgNoUserWithEmail)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, err := s.storeToken(ctx, user.ID, models.TokenReset, ResetTokenTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, user, plaintext); err != nil {
		slog.Error("email_send_failed", "user_id", user.ID, "kind", models.TokenReset.String(), "error", err)
		if clearErr := s.repo.ClearUserToken(ctx, user.ID, models.TokenReset); clearErr != nil {
			slog.Error("reset_token_rollback_failed", "user_id", user.ID, "error", clearErr)
		}
		return apperror.Internal(MsgEmailNotSent, err)
	}

	slog.Info("password_reset_requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// user in.
func (s *Service) ResetPassword(ctx context.Context, resetToken, password string) (*Session, error) {
	if password == "" {
		return nil, apperror.Validation("Please provide a new password")
	}
	if issues := s.passwords.Validate(password); len(issues) > 0 {
		return nil, apperror.Validation(joinIssues(issues))
	}
	if resetToken == "" {
		return nil, apperror.InvalidOrExpiredToken(MsgInvalidToken)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.ConsumeResetToken(ctx, HashEmailToken(resetToken), hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.InvalidOrExpiredToken(MsgInvalidToken)
		}
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password_reset", "user_id", user.ID)
	return s.session(user)
}

// VerifyEmail consumes a verification token.
func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) (*models.User, error) {
	if verificationToken == "" {
		return nil, apperror.InvalidOrExpiredToken(MsgInvalidToken)
	}

	user, err := s.repo.ConsumeVerificationToken(ctx, HashEmailToken(verificationToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.InvalidOrExpiredToken(MsgInvalidToken)
		}
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	slog.Info("email_verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification issues a fresh verification token for an unverified user.
func (s *Service) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return s.userError(err)
	}
	if user.IsEmailVerified {
		return apperror.Validation(MsgAlreadyVerified)
	}

	s.sendVerification(ctx, user)
	return nil
}

// UpdatePassword changes the password of a signed-in user and returns a new
// session.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, in PasswordChangeInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, apperror.Validation("Please provide current and new password")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.userError(err)
	}

	ok, err := s.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidCredentials(MsgWrongPassword)
	}

	if issues := s.passwords.Validate(in.NewPassword, user.FirstName, user.LastName, emailLocalPart(user.Email)); len(issues) > 0 {
		return nil, apperror.Validation(joinIssues(issues))
	}

	hash, err := s.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "user_id", user.ID)
	return s.session(user)
}

// UpdateProfile applies self-service profile changes.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.User, error) {
	if err := validateProfile(&update); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if update.Skills != nil {
		skills := cleanSkills(*update.Skills)
		update.Skills = &skills
	}
	if update.Phone != nil {
		phone := normalizePhone(*update.Phone)
		update.Phone = &phone
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.userError(err)
	}
	if update.DepartmentID != nil && !user.InDepartment(*update.DepartmentID) {
		if user.MembershipStatus != models.StatusPending {
			return nil, apperror.Validation(MsgDepartmentLocked)
		}
		if err := s.checkDepartment(ctx, update.DepartmentID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return updated, nil
}

// GetUser loads the current user.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.userError(err)
	}
	return user, nil
}

// AdminParams describes the administrator account created by EnsureAdmin.
type AdminParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates an active, verified administrator, or promotes the
// existing account with that email.
func (s *Service) EnsureAdmin(ctx context.Context, params AdminParams) (*models.User, error) {
	email := models.NormalizeEmail(params.Email)

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.SetUserRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("failed to set admin role: %w", err)
		}
		user, err := s.repo.SetMembershipStatus(ctx, existing.ID, models.StatusActive)
		if err != nil {
			return nil, fmt.Errorf("failed to activate admin: %w", err)
		}
		slog.Info("admin_promoted", "user_id", user.ID, "email", email)
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if issues := s.passwords.Validate(params.Password); len(issues) > 0 {
		return nil, apperror.Validation(joinIssues(issues))
	}
	hash, err := s.hasher.Hash(ctx, params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:          valueOr(params.FirstName, "Club"),
		LastName:           valueOr(params.LastName, "Admin"),
		Email:              email,
		PasswordHash:       hash,
		Role:               models.RoleAdmin,
		MembershipStatus:   models.StatusActive,
		IsActive:           true,
		IsEmailVerified:    true,
		EmailNotifications: true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("admin_created", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) storeToken(ctx context.Context, userID int64, kind models.TokenKind, ttl time.Duration) (string, error) {
	plaintext, hash, err := GenerateEmailToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetUserToken(ctx, userID, kind, hash, s.now().Add(ttl)); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return plaintext, nil
}

// sendVerification never fails the caller; the account works without a
// verified email.
func (s *Service) sendVerification(ctx context.Context, user *models.User) {
	plaintext, err := s.storeToken(ctx, user.ID, models.TokenVerification, VerificationTokenTTL)
	if err != nil {
		slog.Error("verification_token_failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.notifier.SendVerification(ctx, user, plaintext); err != nil {
		slog.Error("email_send_failed", "user_id", user.ID, "kind", models.TokenVerification.String(), "error", err)
	}
}

func (s *Service) checkDepartment(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	exists, err := s.repo.DepartmentExists(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to check department: %w", err)
	}
	if !exists {
		return apperror.Validation(MsgInvalidDepartment)
	}
	return nil
}

func (s *Service) userError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("User not found")
	}
	return fmt.Errorf("failed to get user: %w", err)
}

// duplicateError maps constraint violations that slipped past the pre-checks.
func duplicateError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperror.Duplicate(MsgEmailTaken)
	case errors.Is(err, repository.ErrDuplicateStudentID):
		return apperror.Duplicate(MsgStudentIDTaken)
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func valueOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
