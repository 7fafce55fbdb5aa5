package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/repository"
)

// AuditHandler exposes the admin-only audit log listing.
type AuditHandler struct {
	Audits *repository.AuditRepo
}

func NewAuditHandler(audits *repository.AuditRepo) *AuditHandler {
	return &AuditHandler{Audits: audits}
}

// List returns audit rows newest first, optionally filtered by user_id and
// action.
func (h *AuditHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	var userID uint64
	if c.QueryParam("user_id") != "" {
		id, ok := queryID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		userID = id
	}
	action := c.QueryParam("action")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Audits.List(ctx, userID, action, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":            e.ID,
			"user_id":       e.UserID,
			"action":        e.Action,
			"resource_type": e.ResourceType,
			"resource_id":   e.ResourceID,
			"details":       e.Details,
			"ip_address":    e.IPAddress,
			"user_agent":    e.UserAgent,
			"created_at":    e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
