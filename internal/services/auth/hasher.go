// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
)

// Hasher runs bcrypt on a bounded number of goroutines so a burst of logins
// cannot starve the rest of the server of CPU.
type Hasher struct {
	sem   *semaphore.Weighted
	cost  int
	dummy []byte
}

// NewHasher creates a hasher with the given bcrypt cost and worker count.
// Out of range values fall back to bcrypt.DefaultCost and runtime.NumCPU.
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Used for constant-time login when the account does not exist.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)

	return &Hasher{
		sem:   semaphore.NewWeighted(int64(workers)),
		cost:  cost,
		dummy: dummy,
	}
}

// Hash returns the bcrypt hash of password. Passwords longer than
// MaxPasswordBytes are a validation error.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A mismatch is not an error;
// err is only set when the context ends before a worker is free.
func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("failed to acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// VerifyDummy spends the same time as Verify against a fixed hash.
func (h *Hasher) VerifyDummy(ctx context.Context, password string) {
	_, _ = h.Verify(ctx, password, string(h.dummy))
}
