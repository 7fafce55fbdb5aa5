package model

import "time"

// AuditLogEntry is an append-only record of a security-relevant event.
// UserID is nil for anonymous or system events. Rows are never updated or
// deleted once written.
type AuditLogEntry struct {
	ID           uint64
	UserID       *uint64
	Action       string
	ResourceType *string
	ResourceID   *uint64
	Details      map[string]any
	IPAddress    *string
	UserAgent    *string
	CreatedAt    time.Time
}
