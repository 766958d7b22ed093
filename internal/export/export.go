// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package export renders the member list as CSV or JSON downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" and "json"; an empty string means csv.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return "", false
	}
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "users-export." + string(f)
}

// ContentType is the MIME type of the rendered file.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Header is the first CSV row.
var Header = []string{
	"Name", "Email", "Student ID", "Role", "Department", "Membership Status", "Year",
	"Skills", "Projects Completed", "Email Verified", "Active", "Joined Date", "Last Login",
}

const dateLayout = "2006-01-02"

// File is a rendered export.
type File struct {
	Format Format
	Data   []byte
}

// Render writes users in format. departments maps department ids to names.
func Render(format Format, users []models.User, departments map[int64]string, now time.Time) (*File, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, users, departments)
	case FormatJSON:
		err = WriteJSON(&buf, users, departments, now)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &File{Format: format, Data: buf.Bytes()}, nil
}

// WriteCSV writes the header and one row per user.
func WriteCSV(w io.Writer, users []models.User, departments map[int64]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range users {
		if err := cw.Write(row(&users[i], departments)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(u *models.User, departments map[int64]string) []string {
	var dept string
	if u.DepartmentID != nil {
		dept = departments[*u.DepartmentID]
	}
	var lastLogin string
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Format(dateLayout)
	}
	return []string{
		u.FullName(),
		u.Email,
		u.StudentIDValue(),
		string(u.Role),
		dept,
		string(u.MembershipStatus),
		u.Year,
		strings.Join(u.Skills, "; "),
		strconv.FormatInt(u.ProjectsCompleted, 10),
		yesNo(u.IsEmailVerified),
		yesNo(u.IsActive),
		u.CreatedAt.UTC().Format(dateLayout),
		lastLogin,
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Record is a user as it appears in the JSON export.
type Record struct {
	models.User
	DepartmentName string `json:"departmentName,omitempty"`
}

// Document is the JSON export body.
type Document struct {
	ExportDate time.Time `json:"exportDate"`
	TotalUsers int       `json:"totalUsers"`
	Users      []Record  `json:"users"`
}

// WriteJSON writes an indented export document.
func WriteJSON(w io.Writer, users []models.User, departments map[int64]string, now time.Time) error {
	doc := Document{
		ExportDate: now.UTC(),
		TotalUsers: len(users),
		Users:      make([]Record, len(users)),
	}
	for i, u := range users {
		doc.Users[i] = Record{User: u}
		if u.DepartmentID != nil {
			doc.Users[i].DepartmentName = departments[*u.DepartmentID]
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
