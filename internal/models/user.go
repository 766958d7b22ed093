// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Role is the club role of a user.
type Role string

const (
	RoleStudent        Role = "student"
	RoleMember         Role = "member"
	RoleTeamLead       Role = "team-lead"
	RoleDepartmentHead Role = "department-head"
	RoleVicePresident  Role = "vice-president"
	RolePresident      Role = "president"
	RoleAdmin          Role = "admin"
	RoleCoordinator    Role = "coordinator"
)

// Roles lists every known role.
var Roles = []Role{
	RoleStudent, RoleMember, RoleTeamLead, RoleDepartmentHead,
	RoleVicePresident, RolePresident, RoleAdmin, RoleCoordinator,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return lo.Contains(Roles, r)
}

// MembershipStatus tracks where a user is in the club membership lifecycle.
type MembershipStatus string

const (
	StatusPending   MembershipStatus = "pending"
	StatusActive    MembershipStatus = "active"
	StatusInactive  MembershipStatus = "inactive"
	StatusSuspended MembershipStatus = "suspended"
	StatusAlumni    MembershipStatus = "alumni"
	StatusRejected  MembershipStatus = "rejected"
)

// MembershipStatuses lists every known membership status.
var MembershipStatuses = []MembershipStatus{
	StatusPending, StatusActive, StatusInactive, StatusSuspended, StatusAlumni, StatusRejected,
}

// Valid reports whether s is a known membership status.
func (s MembershipStatus) Valid() bool {
	return lo.Contains(MembershipStatuses, s)
}

// Academic years accepted for Year.
const (
	YearFirst    = "1st-year"
	YearSecond   = "2nd-year"
	YearThird    = "3rd-year"
	YearFourth   = "4th-year"
	YearGraduate = "graduate"
	YearAlumni   = "alumni"
)

// Years lists every accepted academic year.
var Years = []string{YearFirst, YearSecond, YearThird, YearFourth, YearGraduate, YearAlumni}

// TokenKind selects one of the single-use email tokens stored on a user.
type TokenKind int

const (
	TokenReset TokenKind = iota + 1
	TokenVerification
)

func (k TokenKind) String() string {
	switch k {
	case TokenReset:
		return "reset"
	case TokenVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// User is a club account. Secret columns never leave the process as JSON.
type User struct { //nolint:govet // fieldalignment not critical
	ID                 int64            `db:"id" json:"id"`
	FirstName          string           `db:"first_name" json:"firstName"`
	LastName           string           `db:"last_name" json:"lastName"`
	Email              string           `db:"email" json:"email"`
	PasswordHash       string           `db:"password_hash" json:"-"`
	StudentID          *string          `db:"student_id" json:"studentId,omitempty"`
	Year               string           `db:"year" json:"year"`
	Major              string           `db:"major" json:"major,omitempty"`
	Phone              string           `db:"phone" json:"phone,omitempty"`
	Bio                string           `db:"bio" json:"bio,omitempty"`
	LinkedInURL        string           `db:"linkedin_url" json:"linkedinUrl,omitempty"`
	GitHubURL          string           `db:"github_url" json:"githubUrl,omitempty"`
	Skills             StringList       `db:"skills" json:"skills"`
	ProjectsCompleted  int64            `db:"projects_completed" json:"projectsCompleted"`
	Role               Role             `db:"role" json:"role"`
	MembershipStatus   MembershipStatus `db:"membership_status" json:"membershipStatus"`
	DepartmentID       *int64           `db:"department_id" json:"department,omitempty"`
	IsActive           bool             `db:"is_active" json:"isActive"`
	IsEmailVerified    bool             `db:"is_email_verified" json:"isEmailVerified"`
	EmailNotifications bool             `db:"email_notifications" json:"emailNotifications"`
	LastLogin          *time.Time       `db:"last_login" json:"lastLogin,omitempty"`

	ResetTokenHash             *string `db:"reset_token_hash" json:"-"`
	ResetTokenExpiresAt        *int64  `db:"reset_token_expires_at" json:"-"`
	VerificationTokenHash      *string `db:"verification_token_hash" json:"-"`
	VerificationTokenExpiresAt *int64  `db:"verification_token_expires_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InDepartment reports whether the user belongs to department id.
func (u *User) InDepartment(id int64) bool {
	return u.DepartmentID != nil && *u.DepartmentID == id
}

// StudentIDValue returns the student id or an empty string.
func (u *User) StudentIDValue() string {
	if u.StudentID == nil {
		return ""
	}
	return *u.StudentID
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
