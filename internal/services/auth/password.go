// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordList string

// commonPasswords is built from the embedded list on first use.
var commonPasswords = sync.OnceValue(func() map[string]struct{} {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(commonPasswordList))
	for scanner.Scan() {
		if entry := strings.ToLower(strings.TrimSpace(scanner.Text())); entry != "" {
			set[entry] = struct{}{}
		}
	}
	return set
})

const (
	// MinPasswordLength is the shortest password accepted.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest password bcrypt can hash.
	MaxPasswordBytes = 72
)

// MsgPasswordTooLong is returned for passwords bcrypt cannot hash.
var MsgPasswordTooLong = fmt.Sprintf("Password cannot exceed %d bytes", MaxPasswordBytes)

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength            int
	MaxBytes             int
	RejectNumeric        bool
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordValidator returns the club's password policy: a length
// range and nothing else.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength: MinPasswordLength,
		MaxBytes:  MaxPasswordBytes,
	}
}

// StrictPasswordValidator adds the numeric, common-password and similarity
// rules on top of the default policy. Enabled with --strict-passwords.
func StrictPasswordValidator() *PasswordValidator {
	v := DefaultPasswordValidator()
	v.RejectNumeric = true
	v.CheckCommonPasswords = true
	v.CheckUserSimilarity = true
	return v
}

// PasswordIssue is a single failed password rule.
type PasswordIssue struct {
	Code    string
	Message string
}

// Validate checks a password and returns every failed rule. An empty result
// means the password is acceptable.
func (v *PasswordValidator) Validate(password string, userAttributes ...string) []PasswordIssue {
	var issues []PasswordIssue

	if len([]rune(password)) < v.MinLength {
		issues = append(issues, PasswordIssue{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters", v.MinLength),
		})
	}

	// bcrypt counts bytes, not runes.
	if v.MaxBytes > 0 && len(password) > v.MaxBytes {
		issues = append(issues, PasswordIssue{
			Code:    "max_length",
			Message: fmt.Sprintf("Password cannot exceed %d bytes", v.MaxBytes),
		})
	}

	if v.RejectNumeric && isEntirelyNumeric(password) {
		issues = append(issues, PasswordIssue{
			Code:    "entirely_numeric",
			Message: "Password cannot be entirely numeric",
		})
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		issues = append(issues, PasswordIssue{
			Code:    "common_password",
			Message: "This password is too common",
		})
	}

	if v.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes) {
		issues = append(issues, PasswordIssue{
			Code:    "too_similar",
			Message: "Password is too similar to your personal information",
		})
	}

	return issues
}

// joinIssues joins the issue messages for an error response.
func joinIssues(issues []PasswordIssue) string {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.Message
	}
	return strings.Join(msgs, "; ")
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func isCommonPassword(password string) bool {
	_, ok := commonPasswords()[strings.ToLower(password)]
	return ok
}

// isSimilarToUserAttributes compares against attributes of at least three
// characters; shorter ones match too many passwords by accident.
func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		attrLower := strings.ToLower(strings.TrimSpace(attr))
		if len(attrLower) < 3 {
			continue
		}

		if strings.Contains(passwordLower, attrLower) || strings.Contains(attrLower, passwordLower) {
			return true
		}

		if similarity(passwordLower, attrLower) > 0.7 {
			return true
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := longestCommonSubsequence(a, b)
	return float64(lcs) / float64(max(len(a), len(b)))
}

func longestCommonSubsequence(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
