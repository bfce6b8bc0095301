package auth

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDeactivator struct {
	mu       sync.Mutex
	calls    []string
	failWith error
}

func (m *mockDeactivator) Deactivate(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.calls = append(m.calls, username)
	return nil
}

func (m *mockDeactivator) deactivated(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == username {
			return true
		}
	}
	return false
}

func newTestThrottle(d *mockDeactivator) (*LoginThrottle, *time.Time) {
	t := NewLoginThrottle(5, 600*time.Second, d, slog.Default())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	t.now = func() time.Time { return *clock }
	return t, clock
}

func TestThrottle_FiveFailuresWithinWindowDeactivates(t *testing.T) {
	d := &mockDeactivator{}
	throttle, clock := newTestThrottle(d)

	for i := 0; i < 4; i++ {
		remaining, err := throttle.RecordFailedAttempt(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, 4-i, remaining)
		assert.False(t, d.deactivated("alice"))
		*clock = clock.Add(30 * time.Second)
	}

	remaining, err := throttle.RecordFailedAttempt(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.True(t, d.deactivated("alice"))
	assert.True(t, throttle.IsAccountLocked("alice"))
}

func TestThrottle_WindowMeasuredFromFirstFailure(t *testing.T) {
	d := &mockDeactivator{}
	throttle, clock := newTestThrottle(d)

	// Four failures, then wait past the window before the fifth. The
	// anchor is the first failure, so the fifth lands out of window.
	for i := 0; i < 4; i++ {
		_, err := throttle.RecordFailedAttempt(context.Background(), "bob")
		require.NoError(t, err)
	}
	*clock = clock.Add(601 * time.Second)

	_, err := throttle.RecordFailedAttempt(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, d.deactivated("bob"))
}

func TestThrottle_WindowExpiryClearsCounterOnly(t *testing.T) {
	d := &mockDeactivator{}
	throttle, clock := newTestThrottle(d)

	for i := 0; i < 5; i++ {
		_, err := throttle.RecordFailedAttempt(context.Background(), "carol")
		require.NoError(t, err)
	}
	assert.True(t, d.deactivated("carol"))
	assert.True(t, throttle.IsAccountLocked("carol"))

	// After the window the in-memory lock reports clear, but nothing
	// reactivates the account (that stays with the admin).
	*clock = clock.Add(601 * time.Second)
	assert.False(t, throttle.IsAccountLocked("carol"))

	// Counter was cleared: the next failure starts a fresh window.
	remaining, err := throttle.RecordFailedAttempt(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestThrottle_NotLockedAfterReset(t *testing.T) {
	d := &mockDeactivator{}
	throttle, _ := newTestThrottle(d)

	for i := 0; i < 5; i++ {
		_, err := throttle.RecordFailedAttempt(context.Background(), "dave")
		require.NoError(t, err)
	}
	assert.True(t, throttle.IsAccountLocked("dave"))

	throttle.ResetFailedAttempts("dave")
	assert.False(t, throttle.IsAccountLocked("dave"))
}

func TestThrottle_UnknownUserNotLocked(t *testing.T) {
	d := &mockDeactivator{}
	throttle, _ := newTestThrottle(d)

	assert.False(t, throttle.IsAccountLocked("nobody"))
	throttle.ResetFailedAttempts("nobody") // no-op, must not panic
}

func TestThrottle_DeactivationErrorPropagates(t *testing.T) {
	d := &mockDeactivator{failWith: assert.AnError}
	throttle, _ := newTestThrottle(d)

	var err error
	for i := 0; i < 5; i++ {
		_, err = throttle.RecordFailedAttempt(context.Background(), "erin")
	}
	assert.ErrorIs(t, err, assert.AnError)
}

func TestThrottle_UsersAreIndependent(t *testing.T) {
	d := &mockDeactivator{}
	throttle, _ := newTestThrottle(d)

	for i := 0; i < 5; i++ {
		_, err := throttle.RecordFailedAttempt(context.Background(), "frank")
		require.NoError(t, err)
	}
	assert.True(t, throttle.IsAccountLocked("frank"))
	assert.False(t, throttle.IsAccountLocked("grace"))
}
