package handler // handler defines http handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/middleware"
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// currentUser returns the authenticated user injected by the JWT middleware.
// Routes behind JWTAuth always have it; the nil check guards miswiring.
func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(middleware.CtxUser).(*model.User)
	return u
}

// viewer builds the row-visibility identity for the current request.
func viewer(c echo.Context) repository.Viewer {
	u := currentUser(c)
	if u == nil {
		return repository.Viewer{}
	}
	return repository.Viewer{UserID: u.ID, Role: u.Role}
}

// reqMeta extracts the requester ip/user-agent pair for audit rows.
func reqMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// actorID returns a pointer to the current user's id, nil when anonymous.
func actorID(c echo.Context) *uint64 {
	u := currentUser(c)
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryID parses a positive numeric query parameter.
func queryID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// pagination reads skip/limit query parameters with the usual defaults.
func pagination(c echo.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.QueryParam("skip"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return offset, limit
}
