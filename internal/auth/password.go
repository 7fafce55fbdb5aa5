package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// passwordSymbols is the fixed set of punctuation accepted by the strength
// policy. Characters outside this set do not count as a special character.
const passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password. A
// malformed hash verifies as false, never as an error.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PolicyViolation names the first password rule a candidate fails. The
// message is user-actionable and safe to surface verbatim.
type PolicyViolation struct {
	Rule    string
	Message string
}

func (v *PolicyViolation) Error() string { return v.Message }

// CheckPasswordStrength validates a candidate password against the policy.
// Rules are evaluated in a fixed order (length, uppercase, lowercase, digit,
// special character) and the first failure wins. Returns nil when the
// password satisfies every rule.
func CheckPasswordStrength(password string, minLength int) error {
	// Length is counted in characters, not bytes, so multibyte passwords
	// are held to the same minimum.
	if utf8.RuneCountInString(password) < minLength {
		return &PolicyViolation{
			Rule:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters", minLength),
		}
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasUpper {
		return &PolicyViolation{Rule: "uppercase", Message: "Password must contain at least one uppercase letter"}
	}
	if !hasLower {
		return &PolicyViolation{Rule: "lowercase", Message: "Password must contain at least one lowercase letter"}
	}
	if !hasDigit {
		return &PolicyViolation{Rule: "digit", Message: "Password must contain at least one digit"}
	}
	if !hasSymbol {
		return &PolicyViolation{Rule: "special", Message: "Password must contain at least one special character"}
	}
	return nil
}
