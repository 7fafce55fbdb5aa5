package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// Context keys populated by JWTAuth for downstream middleware and handlers.
const (
	CtxUser   = "current_user" // *model.User
	CtxUserID = "user_id"      // uint64
	CtxRole   = "role"         // model.Role
)

// JWTAuth validates a Bearer access token, loads the subject's user row and
// injects it into the request context. A refresh token presented here fails
// verification outright (wrong `type` claim) even though its signature may
// be valid. Inactive accounts are rejected with 403; every other failure is
// a generic 401 so token and account state cannot be probed apart.
func JWTAuth(tokens *auth.TokenService, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if !u.Actif {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
			}

			c.Set(CtxUser, u)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			return next(c)
		}
	}
}
