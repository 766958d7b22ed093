// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// ProfileUpdate carries the self-service profile fields. Nil means unchanged.
type ProfileUpdate struct { //nolint:govet // fieldalignment not critical
	FirstName          *string   `json:"firstName"`
	LastName           *string   `json:"lastName"`
	Year               *string   `json:"year"`
	Major              *string   `json:"major"`
	Phone              *string   `json:"phone"`
	Bio                *string   `json:"bio"`
	LinkedInURL        *string   `json:"linkedinUrl"`
	GitHubURL          *string   `json:"githubUrl"`
	Skills             *[]string `json:"skills"`
	DepartmentID       *int64    `json:"department"`
	EmailNotifications *bool     `json:"emailNotifications"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Year == nil && p.Major == nil &&
		p.Phone == nil && p.Bio == nil && p.LinkedInURL == nil && p.GitHubURL == nil &&
		p.Skills == nil && p.DepartmentID == nil && p.EmailNotifications == nil
}

// AdminUserUpdate carries the fields an administrator may change on any user.
// Passwords are deliberately absent.
type AdminUserUpdate struct { //nolint:govet // fieldalignment not critical
	FirstName         *string           `json:"firstName"`
	LastName          *string           `json:"lastName"`
	StudentID         *string           `json:"studentId"`
	Year              *string           `json:"year"`
	ProjectsCompleted *int64            `json:"projectsCompleted"`
	Role              *Role             `json:"role"`
	MembershipStatus  *MembershipStatus `json:"membershipStatus"`
	DepartmentID      *int64            `json:"department"`
	IsActive          *bool             `json:"isActive"`
	IsEmailVerified   *bool             `json:"isEmailVerified"`
}

// Empty reports whether no field is set.
func (u AdminUserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.StudentID == nil && u.Year == nil &&
		u.ProjectsCompleted == nil && u.Role == nil && u.MembershipStatus == nil && u.DepartmentID == nil &&
		u.IsActive == nil && u.IsEmailVerified == nil
}

// UserFilter narrows the admin user listing.
type UserFilter struct { //nolint:govet // fieldalignment not critical
	Role            Role
	Status          MembershipStatus
	DepartmentID    *int64
	IsActive        *bool
	IsEmailVerified *bool
	Search          string
	Page            int
	Limit           int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps page and limit into range.
func (f *UserFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// Offset returns the row offset for the current page.
func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// RecipientKind selects who receives a bulk notification.
type RecipientKind string

const (
	RecipientsAll        RecipientKind = "all"
	RecipientsMembers    RecipientKind = "members"
	RecipientsStudents   RecipientKind = "students"
	RecipientsDepartment RecipientKind = "department"
	RecipientsIDs        RecipientKind = "ids"
)

// RecipientSelector resolves to a set of active users.
type RecipientSelector struct {
	Kind         RecipientKind
	DepartmentID int64
	UserIDs      []int64
}

// Count is a labelled aggregate row.
type Count struct {
	Key   string `db:"key" json:"_id"`
	Count int64  `db:"count" json:"count"`
}

// UserStats is the dashboard aggregate over all users.
type UserStats struct { //nolint:govet // fieldalignment not critical
	Total               int64   `json:"totalUsers"`
	ActiveMembers       int64   `json:"activeMembers"`
	PendingApplications int64   `json:"pendingApplications"`
	TotalDepartments    int64   `json:"totalDepartments"`
	Active              int64   `json:"activeUsers"`
	Inactive            int64   `json:"inactiveUsers"`
	Verified            int64   `json:"verifiedUsers"`
	Unverified          int64   `json:"unverifiedUsers"`
	RecentRegistrations int64   `json:"recentRegistrations"`
	ByRole              []Count `json:"usersByRole"`
	ByStatus            []Count `json:"usersByStatus"`
	ByDepartment        []Count `json:"usersByDepartment"`
	MonthlyGrowth       []Count `json:"monthlyGrowth"`
	RecentUsers         []User  `json:"recentUsers"`
}

