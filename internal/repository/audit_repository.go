package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/impacttracker/impacttracker/internal/model"
)

// AuditRepo appends and lists audit log rows. Rows are append-only; there
// are no update or delete operations on this table.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Insert appends one audit row. Details are marshalled to JSON; a nil map
// is stored as an empty object.
func (r *AuditRepo) Insert(ctx context.Context, e *model.AuditLogEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, resource_type, resource_id, details, ip_address, user_agent)
		 VALUES (?,?,?,?,?,?,?)`,
		e.UserID, e.Action, e.ResourceType, e.ResourceID, payload, e.IPAddress, e.UserAgent)
	return err
}

// List returns audit rows newest first, optionally filtered by user and
// action tag. Admin-only at the handler layer.
func (r *AuditRepo) List(ctx context.Context, userID uint64, action string, offset, limit int) ([]*model.AuditLogEntry, error) {
	query := `SELECT id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at
		FROM audit_logs WHERE 1=1`
	var args []any
	if userID > 0 {
		query += " AND user_id=?"
		args = append(args, userID)
	}
	if action != "" {
		query += " AND action=?"
		args = append(args, action)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.AuditLogEntry
	for rows.Next() {
		var (
			e         model.AuditLogEntry
			userID    sql.NullInt64
			resType   sql.NullString
			resID     sql.NullInt64
			details   []byte
			ipAddr    sql.NullString
			userAgent sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &resType, &resID, &details, &ipAddr, &userAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := uint64(userID.Int64)
			e.UserID = &id
		}
		if resType.Valid {
			e.ResourceType = &resType.String
		}
		if resID.Valid {
			id := uint64(resID.Int64)
			e.ResourceID = &id
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		if ipAddr.Valid {
			e.IPAddress = &ipAddr.String
		}
		if userAgent.Valid {
			e.UserAgent = &userAgent.String
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
