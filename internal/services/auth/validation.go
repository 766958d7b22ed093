// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
	"github.com/samber/lo"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// DefaultPhoneRegion is assumed for phone numbers without a country code.
const DefaultPhoneRegion = "IN"

var (
	phonePattern    = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
	linkedInPattern = regexp.MustCompile(`^https://(www\.)?linkedin\.com/`)
	gitHubPattern   = regexp.MustCompile(`^https://(www\.)?github\.com/`)
)

// RegisterInput is the self-registration payload.
type RegisterInput struct { //nolint:govet // fieldalignment not critical
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	StudentID    string   `json:"studentId"`
	DepartmentID *int64   `json:"department"`
	Year         string   `json:"year"`
	Major        string   `json:"major"`
	Phone        string   `json:"phone"`
	Bio          string   `json:"bio"`
	LinkedInURL  string   `json:"linkedinUrl"`
	GitHubURL    string   `json:"githubUrl"`
	Skills       []string `json:"skills"`
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = models.NormalizeEmail(in.Email)
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Phone = normalizePhone(in.Phone)
	in.LinkedInURL = strings.TrimSpace(in.LinkedInURL)
	in.GitHubURL = strings.TrimSpace(in.GitHubURL)
	in.Skills = cleanSkills(in.Skills)
}

// Validate checks field shapes. Password strength is checked separately.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required.Error("First name is required"), nameLength),
		validation.Field(&in.LastName, validation.Required.Error("Last name is required"), nameLength),
		validation.Field(&in.Email, validation.Required.Error("Email is required"), is.Email.Error("Please enter a valid email")),
		validation.Field(&in.Password, validation.Required.Error("Password is required")),
		validation.Field(&in.Year, yearRule),
		validation.Field(&in.Major, validation.Length(0, 100).Error("Major cannot exceed 100 characters")),
		validation.Field(&in.Bio, bioLength),
		validation.Field(&in.Phone, phoneRule),
		validation.Field(&in.LinkedInURL, linkedInRule),
		validation.Field(&in.GitHubURL, gitHubRule),
	)
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both fields.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required.Error("Please provide an email and password")),
		validation.Field(&in.Password, validation.Required.Error("Please provide an email and password")),
	)
}

// PasswordChangeInput is the authenticated password change payload.
type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate requires both fields.
func (in PasswordChangeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required.Error("Please provide current and new password")),
		validation.Field(&in.NewPassword, validation.Required.Error("Please provide current and new password")),
	)
}

var (
	nameLength   = validation.Length(1, 50).Error("cannot exceed 50 characters")
	bioLength    = validation.Length(0, 500).Error("Bio cannot exceed 500 characters")
	yearRule     = validation.In(lo.ToAnySlice(models.Years)...).Error("Invalid academic year")
	phoneRule    = validation.Match(phonePattern).Error("Please enter a valid phone number")
	linkedInRule = validation.Match(linkedInPattern).Error("Please enter a valid LinkedIn URL")
	gitHubRule   = validation.Match(gitHubPattern).Error("Please enter a valid GitHub URL")
)

// validateProfile checks only the fields present in the update.
func validateProfile(p *models.ProfileUpdate) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty.Error("First name cannot be empty"), nameLength),
		validation.Field(&p.LastName, validation.NilOrNotEmpty.Error("Last name cannot be empty"), nameLength),
		validation.Field(&p.Year, yearRule),
		validation.Field(&p.Major, validation.Length(0, 100).Error("Major cannot exceed 100 characters")),
		validation.Field(&p.Bio, bioLength),
		validation.Field(&p.Phone, phoneRule),
		validation.Field(&p.LinkedInURL, linkedInRule),
		validation.Field(&p.GitHubURL, gitHubRule),
	)
}

func cleanSkills(skills []string) []string {
	return lo.Uniq(lo.FilterMap(skills, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}))
}

// normalizePhone formats recognised numbers in international notation and
// leaves everything else for the pattern check.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return phone
	}
	num, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
