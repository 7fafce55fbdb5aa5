package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/model"
)

// UserRepo owns the `users` and `password_history` tables: account CRUD,
// the failed-login counter, and password history retention.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, mot_de_passe_hash, nom, prenom, telephone, role, actif,
	photo_profil, mot_de_passe_change_le, mot_de_passe_expire_le,
	failed_login_attempts, locked_until, date_derniere_connexion,
	date_creation, date_modification`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u           model.User
		role        string
		telephone   []byte
		photo       sql.NullString
		expiresAt   sql.NullTime
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nom, &u.Prenom, &telephone,
		&role, &u.Actif, &photo, &u.PasswordChangedAt, &expiresAt,
		&u.FailedLoginAttempts, &lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.Telephone = telephone
	if photo.Valid {
		u.PhotoProfil = &photo.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		u.PasswordExpiresAt = &t
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// Create inserts a user and returns its id. Email is normalized to lower
// case before insert; a duplicate maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, mot_de_passe_hash, nom, prenom, telephone, role, actif,
			photo_profil, mot_de_passe_change_le, mot_de_passe_expire_le)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		email, u.PasswordHash, u.Nom, u.Prenom, u.Telephone, string(u.Role), u.Actif,
		u.PhotoProfil, u.PasswordChangedAt, u.PasswordExpiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns users ordered by id. Admin-only at the handler layer.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update persists the admin-editable fields of a user.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET nom=?, prenom=?, telephone=?, role=?, actif=?, photo_profil=?
		 WHERE id=?`,
		u.Nom, u.Prenom, u.Telephone, string(u.Role), u.Actif, u.PhotoProfil, u.ID)
	return err
}

// Delete removes a user. Users still referenced as project lead are
// delete-restricted by the schema; the foreign key violation maps to
// ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Timestamps in these statements are computed in Go as UTC and bound as
// parameters. Server-side clock functions (NOW, DATE_ADD) are session-local,
// which would skew the lockout window against the UTC times the login state
// machine compares on any MySQL server not running UTC.
const (
	failedLoginStmt = `UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     locked_until = IF(failed_login_attempts + 1 >= ?, ?, locked_until)
		 WHERE id=?`
	successfulLoginStmt = `UPDATE users
		 SET failed_login_attempts = 0, locked_until = NULL, date_derniere_connexion = ?
		 WHERE id=?`
	setPasswordStmt = `UPDATE users
		 SET mot_de_passe_hash=?, mot_de_passe_change_le=?, mot_de_passe_expire_le=?,
		     failed_login_attempts=0, locked_until=NULL
		 WHERE id=?`
)

// RegisterFailedLogin bumps the failure counter and opens a lockout window
// when the configured threshold is reached, in one atomic statement. Two
// concurrent failures therefore both count; the read-increment-write race
// is closed at the database.
func (r *UserRepo) RegisterFailedLogin(ctx context.Context, id uint64, maxAttempts int, lockout time.Duration) (int, *time.Time, error) {
	until := time.Now().UTC().Add(lockout)
	_, err := r.DB.ExecContext(ctx, failedLoginStmt, maxAttempts, until, id)
	if err != nil {
		return 0, nil, err
	}
	var (
		attempts    int
		lockedUntil sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx,
		"SELECT failed_login_attempts, locked_until FROM users WHERE id=?", id).
		Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		return attempts, &t, nil
	}
	return attempts, nil, nil
}

// RegisterSuccessfulLogin resets the failure counter, clears any lockout and
// stamps the last-login time.
func (r *UserRepo) RegisterSuccessfulLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, successfulLoginStmt, time.Now().UTC(), id)
	return err
}

// RecentPasswordHashes returns the newest retained history hashes, most
// recent first, capped at the configured history depth.
func (r *UserRepo) RecentPasswordHashes(ctx context.Context, userID uint64, depth int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT password_hash FROM password_history
		 WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, depth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// IsPasswordReused reports whether the candidate matches any retained
// history hash, not just the current one.
func (r *UserRepo) IsPasswordReused(ctx context.Context, userID uint64, candidate string, depth int) (bool, error) {
	hashes, err := r.RecentPasswordHashes(ctx, userID, depth)
	if err != nil {
		return false, err
	}
	for _, h := range hashes {
		if auth.VerifyPassword(h, candidate) {
			return true, nil
		}
	}
	return false, nil
}

// SetPassword rotates a user's password in a single transaction: the old
// hash is appended to history, the user row gets the new hash with a fresh
// expiry window (counter reset, lockout cleared), and history beyond depth
// is pruned oldest-first. Either everything persists or nothing does.
func (r *UserRepo) SetPassword(ctx context.Context, userID uint64, oldHash, newHash string, expiresAt time.Time, depth int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_history (user_id, password_hash) VALUES (?,?)",
		userID, oldHash); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, setPasswordStmt,
		newHash, time.Now().UTC(), expiresAt, userID); err != nil {
		return err
	}
	// MySQL cannot delete from a table it subqueries, hence the derived table.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM password_history WHERE user_id=? AND id NOT IN (
			SELECT id FROM (
				SELECT id FROM password_history WHERE user_id=?
				ORDER BY created_at DESC, id DESC LIMIT ?
			) keep
		 )`,
		userID, userID, depth); err != nil {
		return err
	}
	return tx.Commit()
}
