// Package auth holds session tokens, request middleware and the login
// attempt throttle.
//
// The throttle table lives in process memory and is scoped to a single
// portal instance. Replicas would each keep an independent view of attempt
// counts; promoting the table to a shared store is a deliberate non-goal
// for the current single-worker deployment.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AccountDeactivator flips a persisted account status to Inactive.
type AccountDeactivator interface {
	Deactivate(ctx context.Context, username string) error
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time // anchors the lockout window; never advanced on later failures
}

// LoginThrottle counts failed login attempts per username and deactivates
// the account once the threshold is reached within the window.
//
// The window is measured from the first in-window failure. When the window
// elapses the counter resets, but an account already deactivated stays
// Inactive until an administrator reactivates it. That asymmetry matches
// the deployed policy and is kept on purpose.
type LoginThrottle struct {
	mu          sync.Mutex
	attempts    map[string]*attemptRecord
	threshold   int
	window      time.Duration
	deactivator AccountDeactivator
	logger      *slog.Logger

	now func() time.Time // injectable for tests
}

func NewLoginThrottle(threshold int, window time.Duration, deactivator AccountDeactivator, logger *slog.Logger) *LoginThrottle {
	return &LoginThrottle{
		attempts:    make(map[string]*attemptRecord),
		threshold:   threshold,
		window:      window,
		deactivator: deactivator,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordFailedAttempt increments the counter for username and, once the
// threshold is reached inside the window, deactivates the account.
// It returns the number of attempts remaining before lockout (floored at
// zero). Deactivation errors propagate to the caller.
func (t *LoginThrottle) RecordFailedAttempt(ctx context.Context, username string) (int, error) {
	t.mu.Lock()
	rec, ok := t.attempts[username]
	if !ok {
		rec = &attemptRecord{}
		t.attempts[username] = rec
	}
	if rec.count == 0 {
		// First failure of a fresh window anchors it.
		rec.firstAttempt = t.now()
	}
	rec.count++
	count := rec.count
	inWindow := t.now().Sub(rec.firstAttempt) < t.window
	t.mu.Unlock()

	if count >= t.threshold && inWindow {
		t.logger.Warn("login attempt threshold reached, deactivating account",
			slog.Int("attempts", count))
		if err := t.deactivator.Deactivate(ctx, username); err != nil {
			return t.remaining(count), err
		}
	}

	return t.remaining(count), nil
}

// IsAccountLocked reports whether username is currently throttled. A window
// that has elapsed clears the counter as a side effect; it does not touch
// the persisted account status.
func (t *LoginThrottle) IsAccountLocked(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.attempts[username]
	if !ok {
		return false
	}

	elapsed := t.now().Sub(rec.firstAttempt)
	if rec.count >= t.threshold && elapsed < t.window {
		return true
	}
	if elapsed > t.window {
		rec.count = 0
	}
	return false
}

// ResetFailedAttempts zeroes the counter for username after a successful
// login.
func (t *LoginThrottle) ResetFailedAttempts(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.attempts[username]; ok {
		rec.count = 0
	}
}

func (t *LoginThrottle) remaining(count int) int {
	if count >= t.threshold {
		return 0
	}
	return t.threshold - count
}
