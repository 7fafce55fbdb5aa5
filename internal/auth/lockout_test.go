package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impacttracker/impacttracker/internal/model"
)

func testPolicy() Policy {
	return Policy{
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		PasswordValidity: 90 * 24 * time.Hour,
		HistoryDepth:     5,
		MinPasswordLen:   12,
	}
}

func TestEvaluateLoginSuccess(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(time.Hour)
	u := &model.User{FailedLoginAttempts: 3, PasswordExpiresAt: &exp}

	d := EvaluateLogin(u, true, now, testPolicy())
	assert.Equal(t, LoginSuccess, d.Outcome)
	assert.Equal(t, 0, d.FailedAttempts)
	assert.Nil(t, d.LockedUntil)
}

func TestEvaluateLoginBadPasswordIncrements(t *testing.T) {
	now := time.Now().UTC()
	u := &model.User{FailedLoginAttempts: 2}

	d := EvaluateLogin(u, false, now, testPolicy())
	assert.Equal(t, LoginBadPassword, d.Outcome)
	assert.Equal(t, 3, d.FailedAttempts)
	assert.Nil(t, d.LockedUntil, "below threshold, no lockout yet")
}

func TestEvaluateLoginLockAtThreshold(t *testing.T) {
	now := time.Now().UTC()
	u := &model.User{FailedLoginAttempts: 4}

	d := EvaluateLogin(u, false, now, testPolicy())
	assert.Equal(t, LoginBadPassword, d.Outcome)
	assert.Equal(t, 5, d.FailedAttempts)
	require.NotNil(t, d.LockedUntil)
	assert.Equal(t, now.Add(15*time.Minute), *d.LockedUntil)
}

func TestEvaluateLoginLockedWindowOpen(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(10 * time.Minute)
	u := &model.User{FailedLoginAttempts: 5, LockedUntil: &until}

	// The lockout check runs before password verification, so even the
	// correct password is rejected while the window is open.
	d := EvaluateLogin(u, true, now, testPolicy())
	assert.Equal(t, LoginLockedOut, d.Outcome)
	require.NotNil(t, d.LockedUntil)
	assert.Equal(t, until, *d.LockedUntil)
}

func TestEvaluateLoginLockExpired(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(-time.Minute)
	exp := now.Add(time.Hour)
	u := &model.User{FailedLoginAttempts: 5, LockedUntil: &until, PasswordExpiresAt: &exp}

	// Once the window has elapsed the account behaves normally again.
	d := EvaluateLogin(u, true, now, testPolicy())
	assert.Equal(t, LoginSuccess, d.Outcome)
}

func TestEvaluateLoginPasswordExpired(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(-24 * time.Hour)
	u := &model.User{PasswordExpiresAt: &exp}

	d := EvaluateLogin(u, true, now, testPolicy())
	assert.Equal(t, LoginPasswordExpired, d.Outcome)

	// A wrong password on an expired account still counts as a failed
	// attempt; expiry is only checked after verification.
	d = EvaluateLogin(u, false, now, testPolicy())
	assert.Equal(t, LoginBadPassword, d.Outcome)
	assert.Equal(t, 1, d.FailedAttempts)
}

func TestEvaluateLoginNoExpirySet(t *testing.T) {
	now := time.Now().UTC()
	u := &model.User{}

	d := EvaluateLogin(u, true, now, testPolicy())
	assert.Equal(t, LoginSuccess, d.Outcome)
}
