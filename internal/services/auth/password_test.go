// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
)

func issueCodes(issues []PasswordIssue) []string {
	codes := make([]string, len(issues))
	for i, issue := range issues {
		codes[i] = issue.Code
	}
	return codes
}

func TestPasswordValidator(t *testing.T) {
	v := DefaultPasswordValidator()

	tests := []struct {
		name     string
		password string
		codes    []string
	}{
		{"valid", "secret123", []string{}},
		{"common words allowed", "password", []string{}},
		{"digits allowed", "12345678", []string{}},
		{"name allowed", "alice2024", []string{}},
		{"too short", "ab1", []string{"min_length"}},
		{"72 bytes", strings.Repeat("a", MaxPasswordBytes), []string{}},
		{"73 bytes", strings.Repeat("a", MaxPasswordBytes+1), []string{"max_length"}},
		{"multibyte over limit", strings.Repeat("ü", 40), []string{"max_length"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.codes, issueCodes(v.Validate(tt.password, "Alice", "Example", "alice")))
		})
	}
}

func TestStrictPasswordValidator(t *testing.T) {
	v := StrictPasswordValidator()

	tests := []struct {
		name     string
		password string
		attrs    []string
		codes    []string
	}{
		{"valid", "secret123", []string{"Alice", "Example", "alice"}, []string{}},
		{"too short", "ab1", nil, []string{"min_length"}},
		{"numeric", "90817263", nil, []string{"entirely_numeric"}},
		{"common", "Password123", nil, []string{"common_password"}},
		{"contains name", "alicewonder", []string{"Alice"}, []string{"too_similar"}},
		{"short attributes ignored", "bo-runner7", []string{"Bo"}, []string{}},
		{"short numeric", "123", nil, []string{"min_length", "entirely_numeric"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.codes, issueCodes(v.Validate(tt.password, tt.attrs...)))
		})
	}
}

func TestJoinIssues(t *testing.T) {
	issues := []PasswordIssue{{Message: "one"}, {Message: "two"}}
	assert.Equal(t, "one; two", joinIssues(issues))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 0.001)
	assert.InDelta(t, 0.0, similarity("", "abc"), 0.001)
	assert.InDelta(t, 0.5, similarity("abcd", "ab"), 0.001)
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	ok, err := h.Verify(ctx, "secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_PasswordTooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)

	_, err := h.Hash(context.Background(), strings.Repeat("Zq9", 30))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.EqualError(t, err, MsgPasswordTooLong)
}

func TestHasher_CancelledContext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "secret123")
	assert.Error(t, err)
}

func TestNewHasher_Defaults(t *testing.T) {
	h := NewHasher(0, 0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestGenerateEmailToken(t *testing.T) {
	plain, hash, err := GenerateEmailToken()
	require.NoError(t, err)
	assert.Len(t, plain, EmailTokenLength*2)
	assert.Equal(t, HashEmailToken(plain), hash)
	assert.NotEqual(t, plain, hash)

	other, _, err := GenerateEmailToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, other)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+1 650-253-0000", normalizePhone(" +16502530000 "))
	assert.Equal(t, "123", normalizePhone("123"))
	assert.Empty(t, normalizePhone("  "))
}
