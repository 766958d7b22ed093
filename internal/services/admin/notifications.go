// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

const departmentPrefix = "department:"

// NotificationRequest is a bulk email sent by an administrator.
type NotificationRequest struct {
	Recipients json.RawMessage `json:"recipients"`
	Subject    string          `json:"subject"`
	Content    string          `json:"content"`
}

// DeliveryResult is the outcome for one recipient.
type DeliveryResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NotificationReport summarises a bulk send.
type NotificationReport struct {
	TotalRecipients int              `json:"totalRecipients"`
	SuccessCount    int              `json:"successCount"`
	FailCount       int              `json:"failCount"`
	Results         []DeliveryResult `json:"results"`
}

// Message is the human readable summary.
func (r *NotificationReport) Message() string {
	return fmt.Sprintf("Bulk email sent. %d successful, %d failed", r.SuccessCount, r.FailCount)
}

// ParseRecipients decodes "all", "members", "students", "department:<id>" or
// a JSON array of user ids.
func ParseRecipients(raw json.RawMessage) (models.RecipientSelector, error) {
	invalid := apperror.Validation(MsgInvalidRecipients)

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		name = strings.TrimSpace(name)
		switch models.RecipientKind(name) {
		case models.RecipientsAll, models.RecipientsMembers, models.RecipientsStudents:
			return models.RecipientSelector{Kind: models.RecipientKind(name)}, nil
		}
		if rest, ok := strings.CutPrefix(name, departmentPrefix); ok {
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return models.RecipientSelector{}, invalid
			}
			return models.RecipientSelector{Kind: models.RecipientsDepartment, DepartmentID: id}, nil
		}
		return models.RecipientSelector{}, invalid
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil || len(ids) == 0 {
		return models.RecipientSelector{}, invalid
	}
	return models.RecipientSelector{Kind: models.RecipientsIDs, UserIDs: ids}, nil
}

// SendBulkNotification emails every active user matched by the recipients
// selector. Individual failures are reported, not returned.
func (s *Service) SendBulkNotification(ctx context.Context, req NotificationRequest) (*NotificationReport, error) {
	subject := strings.TrimSpace(req.Subject)
	content := strings.TrimSpace(req.Content)
	if subject == "" || content == "" {
		return nil, apperror.Validation(MsgSubjectRequired)
	}

	sel, err := ParseRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListRecipients(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(users) == 0 {
		return nil, apperror.Validation(MsgNoRecipients)
	}

	results := make([]DeliveryResult, len(users))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range users {
		g.Go(func() error {
			results[i] = DeliveryResult{Email: users[i].Email, Success: true}
			if err := s.notifier.SendNotification(ctx, &users[i], subject, content); err != nil {
				results[i].Success = false
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &NotificationReport{TotalRecipients: len(users), Results: results}
	for _, r := range results {
		if r.Success {
			report.SuccessCount++
		} else {
			report.FailCount++
		}
	}

	slog.Info("bulk_email_sent", "selector", string(sel.Kind), "success", report.SuccessCount, "failed", report.FailCount)
	return report, nil
}
