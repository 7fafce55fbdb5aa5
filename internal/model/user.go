package model

import "time"

// Role enumerates the closed set of application roles. Values match the
// `role` column of the `users` table; anything outside this set carries no
// permissions and sees no rows.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleChefProjet Role = "chef_projet"
	RoleDonateur   Role = "donateur"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleChefProjet, RoleDonateur:
		return true
	}
	return false
}

// ParseRole normalizes a raw string into a Role. The boolean is false when
// the value is not part of the enum.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User represents a row of the `users` table. Credentials and the account
// security counters live here; the phone number is stored encrypted and is
// only ever exposed after decryption through the field cipher.
//
// Fields:
//  ID                  – primary key identifier.
//  Email               – unique, lower-cased email address.
//  PasswordHash        – bcrypt hash of the current password.
//  Nom, Prenom         – last and first name.
//  Telephone           – AES-encrypted phone number (nullable).
//  Role                – one of admin, chef_projet, donateur.
//  Actif               – whether the account may authenticate.
//  PhotoProfil         – optional avatar URL.
//  PasswordChangedAt   – when the current password was set.
//  PasswordExpiresAt   – when the current password stops being accepted.
//  FailedLoginAttempts – consecutive failed logins since the last success.
//  LockedUntil         – end of the lockout window (nil when not locked).
//  LastLoginAt         – timestamp of the last successful login.
type User struct {
	ID                  uint64
	Email               string
	PasswordHash        string
	Nom                 string
	Prenom              string
	Telephone           []byte
	Role                Role
	Actif               bool
	PhotoProfil         *string
	PasswordChangedAt   time.Time
	PasswordExpiresAt   *time.Time
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PasswordHistoryEntry is a prior password hash retained so new passwords
// can be checked against recent ones. Rows cascade-delete with their user
// and are pruned oldest-first beyond the configured history depth.
type PasswordHistoryEntry struct {
	ID           uint64
	UserID       uint64
	PasswordHash string
	CreatedAt    time.Time
}
