package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/handler"
	"github.com/impacttracker/impacttracker/internal/middleware"
	"github.com/impacttracker/impacttracker/internal/model"
)

// Handlers groups every handler the router wires up. Built once in main and
// passed here so route registration stays in one place.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Projects     *handler.ProjectHandler
	Indicators   *handler.IndicatorHandler
	Financements *handler.FinancementHandler
	Documents    *handler.DocumentHandler
	Audits       *handler.AuditHandler
	Stats        *handler.StatsHandler
}

// Register wires all routes onto the Echo instance. The authGuard middleware
// validates the access token and loads the user; loginLimiter throttles the
// credential-bearing endpoints on top of the account lockout.
func Register(e *echo.Echo, h Handlers, authGuard, loginLimiter echo.MiddlewareFunc) {
	// Liveness probe for load balancers and monitoring, no auth.
	e.GET("/healthz", h.Health.Check)

	// Unauthenticated auth flows. Login and forgot-password take credentials
	// or probe accounts, so they get the rate limiter.
	ag := e.Group("/api/v1/auth")
	ag.POST("/login", h.Auth.Login, loginLimiter)
	ag.POST("/refresh", h.Auth.Refresh)
	ag.POST("/forgot-password", h.Auth.ForgotPassword, loginLimiter)
	ag.POST("/reset-password", h.Auth.ResetPassword)

	// Everything below requires a valid access token and an active account.
	api := e.Group("/api/v1", authGuard)

	api.POST("/auth/logout", h.Auth.Logout)
	api.POST("/auth/change-password", h.Auth.ChangePassword)
	api.GET("/auth/me", h.Auth.Me)

	// Account management is admin territory.
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	users := api.Group("/users", adminOnly)
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	// Project reads rely on repository row scoping, so any authenticated
	// role may call them; each caller only ever sees their slice.
	projects := api.Group("/projects")
	projects.GET("", h.Projects.List)
	projects.GET("/:id", h.Projects.Get)
	projects.POST("", h.Projects.Create, adminOnly)
	projects.PUT("/:id", h.Projects.Update, middleware.RequirePermission(auth.PermUpdateOwnProjects))
	projects.DELETE("/:id", h.Projects.Delete, adminOnly)

	indicators := api.Group("/indicators")
	indicators.GET("", h.Indicators.List)
	indicators.GET("/:id", h.Indicators.Get)
	indicators.POST("", h.Indicators.Create, middleware.RequirePermission(auth.PermCreateIndicators))
	indicators.PUT("/:id", h.Indicators.Update, middleware.RequirePermission(auth.PermUpdateIndicators))
	indicators.DELETE("/:id", h.Indicators.Delete, middleware.RequirePermission(auth.PermUpdateIndicators))

	financements := api.Group("/financements")
	financements.GET("", h.Financements.List)
	financements.GET("/:id", h.Financements.Get)
	financements.POST("", h.Financements.Create, middleware.RequirePermission(auth.PermCreateFinancement))
	financements.PUT("/:id", h.Financements.Update)
	financements.DELETE("/:id", h.Financements.Delete)

	documents := api.Group("/documents")
	documents.GET("", h.Documents.List)
	documents.POST("", h.Documents.Upload, middleware.RequirePermission(auth.PermUploadDocuments))
	documents.GET("/:id/download", h.Documents.Download)
	documents.DELETE("/:id", h.Documents.Delete)

	// Audit trail and dashboard numbers are admin-only.
	api.GET("/audit-logs", h.Audits.List, adminOnly)
	api.GET("/stats/kpis", h.Stats.KPIs, adminOnly)
	api.GET("/stats/export/projects", h.Stats.ExportProjects, adminOnly)
}
