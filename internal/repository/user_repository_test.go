package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginStatementsUseGoComputedTimestamps(t *testing.T) {
	// Every timestamp compared by the login state machine must be bound as
	// a Go-computed UTC parameter. A server-side clock function would be
	// session-local and shift the lockout window on non-UTC MySQL servers.
	for name, stmt := range map[string]string{
		"failed login":     failedLoginStmt,
		"successful login": successfulLoginStmt,
		"set password":     setPasswordStmt,
	} {
		upper := strings.ToUpper(stmt)
		assert.NotContains(t, upper, "NOW(", name)
		assert.NotContains(t, upper, "DATE_ADD", name)
		assert.NotContains(t, upper, "CURRENT_TIMESTAMP", name)
	}
}

func TestFailedLoginStatementIsAtomic(t *testing.T) {
	// The counter bump and the conditional lock must live in one UPDATE so
	// concurrent failures cannot undercount.
	assert.Contains(t, failedLoginStmt, "failed_login_attempts = failed_login_attempts + 1")
	assert.Contains(t, failedLoginStmt, "locked_until = IF(failed_login_attempts + 1 >= ?, ?, locked_until)")
}
