package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Passw0rd", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Passw0rd", hash)

	assert.True(t, VerifyPassword(hash, "Str0ng!Passw0rd"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Str0ng!Passw0rd"))
}

func TestCheckPasswordStrengthOrder(t *testing.T) {
	// A short password that also lacks a digit must be reported for length
	// first: rules are checked in a fixed order and the first failure wins.
	err := CheckPasswordStrength("Ab!", 12)
	require.Error(t, err)
	var v *PolicyViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "min_length", v.Rule)

	cases := []struct {
		password string
		rule     string
	}{
		{"abcdefgh1234!x", "uppercase"},
		{"ABCDEFGH1234!X", "lowercase"},
		{"Abcdefghijkl!x", "digit"},
		{"Abcdefghijkl1x", "special"},
	}
	for _, tc := range cases {
		err := CheckPasswordStrength(tc.password, 12)
		require.Error(t, err, tc.password)
		var v *PolicyViolation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, tc.rule, v.Rule, tc.password)
	}

	assert.NoError(t, CheckPasswordStrength("Abcdefghijk1!", 12))
}

func TestCheckPasswordStrengthCountsCharacters(t *testing.T) {
	// 11 characters but 14 bytes: the minimum is a character count, so the
	// multibyte letters must not let it pass.
	err := CheckPasswordStrength("Pässwörd1!é", 12)
	require.Error(t, err)
	var v *PolicyViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "min_length", v.Rule)

	// Exactly 12 characters with every class satisfied.
	assert.NoError(t, CheckPasswordStrength("Pässwörd123!", 12))
}

func TestCheckPasswordStrengthSymbolSet(t *testing.T) {
	// A character outside the fixed symbol set does not satisfy the special
	// character rule.
	err := CheckPasswordStrength("Abcdefghijk1§", 12)
	require.Error(t, err)
	var v *PolicyViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "special", v.Rule)

	assert.NoError(t, CheckPasswordStrength("Abcdefghijk1-", 12))
}
