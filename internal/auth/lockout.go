package auth

import (
	"errors"
	"time"

	"github.com/impacttracker/impacttracker/internal/model"
)

// Sentinel errors for the credential flows. Their messages are the
// user-facing ones, safe to surface verbatim. Handlers translate them into
// HTTP statuses: bad credentials become a generic 401 so account existence
// cannot be probed; locked and expired states are reported distinctly
// because the caller already proved knowledge of the email.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked")
	ErrPasswordExpired    = errors.New("password has expired, please reset your password")
	ErrPasswordReused     = errors.New("new password must differ from your recent passwords")
)

// Policy bundles the configurable account security knobs.
type Policy struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	PasswordValidity time.Duration // new expiry window after each password set
	HistoryDepth     int           // retained password history entries
	MinPasswordLen   int
}

// LoginOutcome is the decision of one login attempt evaluation.
type LoginOutcome int

const (
	// LoginSuccess: reset the failure counter, clear the lock, stamp last login.
	LoginSuccess LoginOutcome = iota
	// LoginBadPassword: increment the failure counter; LockedUntil is set when
	// this attempt reached the lockout threshold.
	LoginBadPassword
	// LoginLockedOut: the lockout window is still open, nothing changes.
	LoginLockedOut
	// LoginPasswordExpired: credentials were correct but the password is past
	// its expiry; login stays blocked until the password is changed or reset.
	LoginPasswordExpired
)

// LoginDecision describes what a login attempt did to the account state.
// FailedAttempts is the counter value after the attempt; LockedUntil is
// non-nil while a lockout window is open.
type LoginDecision struct {
	Outcome        LoginOutcome
	FailedAttempts int
	LockedUntil    *time.Time
}

// EvaluateLogin runs the account security state machine for one attempt.
// It is pure: the caller persists the resulting counter and lock window.
// Order of checks mirrors the login flow: open lockout window first, then
// password verification, then password expiry.
func EvaluateLogin(u *model.User, passwordOK bool, now time.Time, p Policy) LoginDecision {
	if u.LockedUntil != nil && now.Before(*u.LockedUntil) {
		return LoginDecision{
			Outcome:        LoginLockedOut,
			FailedAttempts: u.FailedLoginAttempts,
			LockedUntil:    u.LockedUntil,
		}
	}
	if !passwordOK {
		attempts := u.FailedLoginAttempts + 1
		d := LoginDecision{Outcome: LoginBadPassword, FailedAttempts: attempts}
		if attempts >= p.MaxLoginAttempts {
			until := now.Add(p.LockoutDuration)
			d.LockedUntil = &until
		}
		return d
	}
	if u.PasswordExpiresAt != nil && u.PasswordExpiresAt.Before(now) {
		return LoginDecision{Outcome: LoginPasswordExpired, FailedAttempts: u.FailedLoginAttempts, LockedUntil: u.LockedUntil}
	}
	return LoginDecision{Outcome: LoginSuccess, FailedAttempts: 0}
}
