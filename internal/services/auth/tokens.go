// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// EmailTokenLength is the number of random bytes in reset and verification tokens.
	EmailTokenLength = 32
	// ResetTokenTTL is how long a password reset token is valid.
	ResetTokenTTL = 10 * time.Minute
	// VerificationTokenTTL is how long an email verification token is valid.
	VerificationTokenTTL = 24 * time.Hour
)

// GenerateEmailToken returns a random hex token and the SHA-256 hash to store.
func GenerateEmailToken() (plaintext, hash string, err error) {
	buf := make([]byte, EmailTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashEmailToken(plaintext), nil
}

// HashEmailToken computes the SHA-256 hex digest of a token.
func HashEmailToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
