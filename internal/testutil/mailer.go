// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package testutil

import (
	"context"
	"sync"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

// SentMail is one message captured by Mailer.
type SentMail struct {
	Kind    string
	To      string
	Token   string
	Subject string
	Content string
}

// Mailer records outgoing account emails instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Err is returned from every send when set.
	Err error
	// FailFor makes sends to these addresses fail with Err.
	FailFor map[string]bool
}

func (m *Mailer) record(mail SentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil && (len(m.FailFor) == 0 || m.FailFor[mail.To]) {
		return m.Err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *Mailer) SendVerification(_ context.Context, user *models.User, token string) error {
	return m.record(SentMail{Kind: "verification", To: user.Email, Token: token})
}

func (m *Mailer) SendPasswordReset(_ context.Context, user *models.User, token string) error {
	return m.record(SentMail{Kind: "reset", To: user.Email, Token: token})
}

func (m *Mailer) SendMembershipDecision(_ context.Context, user *models.User, status models.MembershipStatus, reason string) error {
	return m.record(SentMail{Kind: "membership", To: user.Email, Subject: string(status), Content: reason})
}

func (m *Mailer) SendNotification(_ context.Context, user *models.User, subject, content string) error {
	return m.record(SentMail{Kind: "notification", To: user.Email, Subject: subject, Content: content})
}

// Sent returns a copy of every recorded message.
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// LastToken returns the token of the most recent message of kind sent to email.
func (m *Mailer) LastToken(kind, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind && m.sent[i].To == email {
			return m.sent[i].Token
		}
	}
	return ""
}
