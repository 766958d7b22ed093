// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email renders and delivers the club's transactional emails.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"codeberg.org/nutechnocrats/clubhub/internal/i18n"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// ResetTokenMinutes is quoted in the password reset email.
const ResetTokenMinutes = 10

// ErrNoRecipient is returned when a message has no address.
var ErrNoRecipient = errors.New("email recipient is required")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service renders club emails and hands them to a Sender.
type Service struct {
	sender      Sender
	apiBaseURL  string
	frontendURL string
}

// NewService creates a new email service. apiBaseURL is used for links that
// hit the API directly, frontendURL for links opened in the web app.
func NewService(sender Sender, apiBaseURL, frontendURL string) *Service {
	return &Service{
		sender:      sender,
		apiBaseURL:  strings.TrimSuffix(apiBaseURL, "/"),
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
	}
}

// Close releases resources held by the service. Each send dials its own
// SMTP connection, so there is nothing to tear down yet.
func (s *Service) Close() error {
	return nil
}

// SendVerification sends the email verification link.
func (s *Service) SendVerification(ctx context.Context, user *models.User, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email/%s", s.apiBaseURL, token)
	return s.deliver(ctx, user, "email_verify_subject", "email_verify_body", nil, link)
}

// SendPasswordReset sends the password reset link.
func (s *Service) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	return s.deliver(ctx, user, "email_reset_subject", "email_reset_body",
		map[string]any{"Minutes": ResetTokenMinutes}, link)
}

// SendMembershipDecision informs a user about an approved, rejected or
// suspended membership. Other statuses send nothing.
func (s *Service) SendMembershipDecision(ctx context.Context, user *models.User, status models.MembershipStatus, reason string) error {
	var key string
	switch status {
	case models.StatusActive:
		key = "email_membership_approved"
	case models.StatusRejected:
		key = "email_membership_rejected"
	case models.StatusSuspended:
		key = "email_membership_suspended"
	default:
		return nil
	}

	data := s.data(ctx, user, nil)
	lines := []string{i18n.TData(ctx, key+"_body", data)}
	if reason = strings.TrimSpace(reason); reason != "" {
		lines = append(lines, i18n.TData(ctx, "email_reason", map[string]any{"Reason": reason}))
	}
	if status == models.StatusActive {
		lines = append(lines, i18n.TData(ctx, "email_login_hint", map[string]any{"LoginURL": s.frontendURL + "/login"}))
	}

	return s.send(ctx, user, i18n.TData(ctx, key+"_subject", data), lines, "")
}

// SendNotification sends an administrator-written announcement.
func (s *Service) SendNotification(ctx context.Context, user *models.User, subject, content string) error {
	return s.send(ctx, user, subject, strings.Split(strings.TrimSpace(content), "\n\n"), "")
}

func (s *Service) deliver(ctx context.Context, user *models.User, subjectID, bodyID string, extra map[string]any, link string) error {
	data := s.data(ctx, user, extra)
	return s.send(ctx, user, i18n.TData(ctx, subjectID, data), []string{i18n.TData(ctx, bodyID, data)}, link)
}

func (s *Service) data(ctx context.Context, user *models.User, extra map[string]any) map[string]any {
	data := map[string]any{
		"FirstName": user.FirstName,
		"ClubName":  i18n.T(ctx, "club_name"),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (s *Service) send(ctx context.Context, user *models.User, subject string, paragraphs []string, link string) error {
	if user.Email == "" {
		return ErrNoRecipient
	}

	view := bodyView{
		Greeting:   i18n.TData(ctx, "email_greeting", map[string]any{"FirstName": user.FirstName}),
		Paragraphs: paragraphs,
		Link:       link,
		Signature:  i18n.TData(ctx, "email_signature", map[string]any{"ClubName": i18n.T(ctx, "club_name")}),
	}

	html, err := view.html()
	if err != nil {
		return fmt.Errorf("rendering email: %w", err)
	}

	return s.sender.Send(ctx, Message{
		To:      user.Email,
		ToName:  user.FullName(),
		Subject: subject,
		Text:    view.text(),
		HTML:    html,
	})
}

type bodyView struct {
	Greeting   string
	Paragraphs []string
	Link       string
	Signature  string
}

var htmlBody = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif; line-height: 1.5;">
<p>{{.Greeting}}</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .Link}}<p><a href="{{.Link}}">{{.Link}}</a></p>
{{end}}<p>{{.Signature}}</p>
</body></html>
`))

func (v bodyView) html() (string, error) {
	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (v bodyView) text() string {
	parts := []string{v.Greeting}
	parts = append(parts, v.Paragraphs...)
	if v.Link != "" {
		parts = append(parts, v.Link)
	}
	parts = append(parts, v.Signature)
	return strings.Join(parts, "\n\n") + "\n"
}
