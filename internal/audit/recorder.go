// Package audit provides the append-only recorder for security-relevant
// events. Recording never fails the triggering operation: persistence
// errors are logged and swallowed.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/queue"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// Action tags form a closed, extensible set of string constants. New tags
// are added here, never inlined at call sites.
const (
	ActionUserLogin          = "USER_LOGIN"
	ActionUserLoginFailed    = "USER_LOGIN_FAILED"
	ActionUserLogout         = "USER_LOGOUT"
	ActionUserCreated        = "USER_CREATED"
	ActionUserUpdated        = "USER_UPDATED"
	ActionUserDeleted        = "USER_DELETED"
	ActionPasswordChanged    = "PASSWORD_CHANGED"
	ActionPasswordReset      = "PASSWORD_RESET"
	ActionProjectCreated     = "PROJECT_CREATED"
	ActionProjectUpdated     = "PROJECT_UPDATED"
	ActionProjectDeleted     = "PROJECT_DELETED"
	ActionIndicatorCreated   = "INDICATOR_CREATED"
	ActionIndicatorUpdated   = "INDICATOR_UPDATED"
	ActionIndicatorDeleted   = "INDICATOR_DELETED"
	ActionFinancementCreated = "FINANCEMENT_CREATED"
	ActionFinancementUpdated = "FINANCEMENT_UPDATED"
	ActionFinancementDeleted = "FINANCEMENT_DELETED"
	ActionDocumentUploaded   = "DOCUMENT_UPLOADED"
	ActionDocumentDeleted    = "DOCUMENT_DELETED"
	ActionExportGenerated    = "EXPORT_GENERATED"
)

// RequestMeta carries the requester identifiers supplied by the HTTP layer.
// Zero values mean "unknown" and are stored as NULL.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Entry describes one event to record. ActorID is nil for anonymous or
// system events.
type Entry struct {
	ActorID      *uint64
	Action       string
	ResourceType string
	ResourceID   uint64
	Details      map[string]any
	Meta         RequestMeta
}

// Recorder writes audit rows and, when a broker is configured, mirrors them
// onto the audit.events queue.
type Recorder struct {
	Repo    *repository.AuditRepo
	Log     *zap.Logger
	Publish bool
}

func NewRecorder(repo *repository.AuditRepo, log *zap.Logger, publish bool) *Recorder {
	return &Recorder{Repo: repo, Log: log, Publish: publish}
}

// Record appends one audit row. It never returns an error: a failed write
// must not fail the business operation that triggered it, so failures are
// only logged.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	entry := &model.AuditLogEntry{
		UserID:  e.ActorID,
		Action:  e.Action,
		Details: e.Details,
	}
	if e.ResourceType != "" {
		entry.ResourceType = &e.ResourceType
	}
	if e.ResourceID != 0 {
		entry.ResourceID = &e.ResourceID
	}
	if e.Meta.IP != "" {
		entry.IPAddress = &e.Meta.IP
	}
	if e.Meta.UserAgent != "" {
		entry.UserAgent = &e.Meta.UserAgent
	}

	if err := r.Repo.Insert(ctx, entry); err != nil {
		r.Log.Error("audit insert failed",
			zap.String("action", e.Action),
			zap.Error(err))
	}

	if r.Publish {
		ev := queue.SecurityEvent{
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			IPAddress:    e.Meta.IP,
			UserAgent:    e.Meta.UserAgent,
			Details:      e.Details,
			OccurredAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if e.ActorID != nil {
			ev.UserID = *e.ActorID
		}
		// Broker failures are already logged inside the publisher.
		_ = queue.PublishSecurityEvent(ctx, ev)
	}
}
