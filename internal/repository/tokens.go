// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
)

func tokenColumns(kind models.TokenKind) (hashCol, expiresCol string, err error) {
	switch kind {
	case models.TokenReset:
		return "reset_token_hash", "reset_token_expires_at", nil
	case models.TokenVerification:
		return "verification_token_hash", "verification_token_expires_at", nil
	default:
		return "", "", fmt.Errorf("unknown token kind %d", kind)
	}
}

// SetUserToken stores the hash and expiry of a single-use token, replacing
// any previous token of the same kind.
func (r *Repository) SetUserToken(ctx context.Context, userID int64, kind models.TokenKind, tokenHash string, expiresAt time.Time) error {
	hashCol, expiresCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	return r.execOne(ctx,
		`UPDATE users SET `+hashCol+` = ?, `+expiresCol+` = ? WHERE id = ?`,
		tokenHash, expiresAt.Unix(), userID)
}

// ClearUserToken removes a pending token of the given kind.
func (r *Repository) ClearUserToken(ctx context.Context, userID int64, kind models.TokenKind) error {
	hashCol, expiresCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET `+hashCol+` = NULL, `+expiresCol+` = NULL WHERE id = ?`, userID)
	return err
}

// ConsumeResetToken sets a new password for the user holding an unexpired
// reset token with the given hash and clears the token in the same statement.
func (r *Repository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		UPDATE users SET
			password_hash = ?,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE reset_token_hash = ? AND reset_token_expires_at > ?
		RETURNING id`,
		passwordHash, tokenHash, now.Unix())
	if err != nil {
		return nil, wrapError(err)
	}
	return r.GetUserByID(ctx, id)
}

// ConsumeVerificationToken marks the email of the user holding an unexpired
// verification token as verified and clears the token in the same statement.
func (r *Repository) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		UPDATE users SET
			is_email_verified = 1,
			verification_token_hash = NULL,
			verification_token_expires_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE verification_token_hash = ? AND verification_token_expires_at > ?
		RETURNING id`,
		tokenHash, now.Unix())
	if err != nil {
		return nil, wrapError(err)
	}
	return r.GetUserByID(ctx, id)
}
