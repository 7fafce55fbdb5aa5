package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/config"
	"github.com/impacttracker/impacttracker/internal/crypto"
	"github.com/impacttracker/impacttracker/internal/mail"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// AuthHandler bundles dependencies for the authentication and password
// lifecycle endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *auth.TokenService
	Resets   auth.ResetTokenStore
	Cipher   *crypto.FieldCipher
	Recorder *audit.Recorder
	Mailer   mail.Mailer
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, tokens *auth.TokenService,
	resets auth.ResetTokenStore, cipher *crypto.FieldCipher, rec *audit.Recorder,
	mailer mail.Mailer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		Cfg: cfg, Users: users, Tokens: tokens, Resets: resets,
		Cipher: cipher, Recorder: rec, Mailer: mailer, Log: log,
	}
}

func (h *AuthHandler) policy() auth.Policy {
	return auth.Policy{
		MaxLoginAttempts: h.Cfg.MaxLoginAttempts,
		LockoutDuration:  h.Cfg.LockoutDuration,
		PasswordValidity: time.Duration(h.Cfg.PasswordExpireDays) * 24 * time.Hour,
		HistoryDepth:     h.Cfg.PasswordHistoryCount,
		MinPasswordLen:   h.Cfg.PasswordMinLength,
	}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login verifies credentials and runs the account security state machine:
// open lockout window first, then the password, then password expiry. A
// failed attempt counts atomically at the database so concurrent failures
// cannot undercount.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			// Same message as a wrong password so accounts cannot be enumerated.
			h.Recorder.Record(ctx, audit.Entry{
				Action:  audit.ActionUserLoginFailed,
				Details: map[string]any{"email": req.Email},
				Meta:    reqMeta(c),
			})
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": auth.ErrInvalidCredentials.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	passwordOK := auth.VerifyPassword(u.PasswordHash, req.Password)
	decision := auth.EvaluateLogin(u, passwordOK, time.Now().UTC(), h.policy())

	switch decision.Outcome {
	case auth.LoginLockedOut:
		// Revealing locked_until is a deliberate usability-over-secrecy choice.
		return c.JSON(http.StatusLocked, echo.Map{
			"error":        auth.ErrAccountLocked.Error(),
			"locked_until": decision.LockedUntil,
		})

	case auth.LoginBadPassword:
		if _, _, err := h.Users.RegisterFailedLogin(ctx, u.ID, h.Cfg.MaxLoginAttempts, h.Cfg.LockoutDuration); err != nil {
			h.Log.Error("failed login bookkeeping failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
		h.Recorder.Record(ctx, audit.Entry{
			ActorID: &u.ID,
			Action:  audit.ActionUserLoginFailed,
			Meta:    reqMeta(c),
		})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": auth.ErrInvalidCredentials.Error()})

	case auth.LoginPasswordExpired:
		return c.JSON(http.StatusForbidden, echo.Map{"error": auth.ErrPasswordExpired.Error()})
	}

	if err := h.Users.RegisterSuccessfulLogin(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login bookkeeping failed"})
	}

	access, _, err := h.Tokens.CreateAccessToken(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, _, err := h.Tokens.CreateRefreshToken(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{ActorID: &u.ID, Action: audit.ActionUserLogin, Meta: reqMeta(c)})

	return c.JSON(http.StatusOK, tokenResp{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

// Refresh exchanges a valid refresh token for a new token pair. The role
// claim is re-read from the user row so role changes take effect here.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := h.Tokens.VerifyRefreshToken(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil || !u.Actif {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	access, _, err := h.Tokens.CreateAccessToken(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, _, err := h.Tokens.CreateRefreshToken(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

// Logout records the event. Tokens are stateless, so there is nothing to
// revoke server-side.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	h.Recorder.Record(ctx, audit.Entry{ActorID: actorID(c), Action: audit.ActionUserLogout, Meta: reqMeta(c)})
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

// ChangePassword rotates the password of the authenticated user. Order of
// gates: current password, strength policy (first failing rule wins),
// history reuse.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	u := currentUser(c)

	if !auth.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
	}
	if err := auth.CheckPasswordStrength(req.NewPassword, h.Cfg.PasswordMinLength); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reused, err := h.Users.IsPasswordReused(ctx, u.ID, req.NewPassword, h.Cfg.PasswordHistoryCount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "history check failed"})
	}
	if reused {
		return c.JSON(http.StatusConflict, echo.Map{"error": auth.ErrPasswordReused.Error()})
	}

	newHash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	expiresAt := time.Now().UTC().Add(h.policy().PasswordValidity)
	if err := h.Users.SetPassword(ctx, u.ID, u.PasswordHash, newHash, expiresAt, h.Cfg.PasswordHistoryCount); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{ActorID: &u.ID, Action: audit.ActionPasswordChanged, Meta: reqMeta(c)})
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}

// ForgotPassword issues an ephemeral reset token and mails it. The response
// is identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == nil {
		token, issueErr := h.Resets.Issue(ctx, u.ID, h.Cfg.ResetTokenTTL)
		if issueErr != nil {
			h.Log.Error("reset token issue failed", zap.Uint64("user_id", u.ID), zap.Error(issueErr))
		} else if !mail.SendPasswordReset(h.Mailer, u.Email, h.Cfg.ResetBaseURL, token) {
			// Email failure is logged by the mailer; the caller still gets
			// the generic response below.
			h.Log.Warn("password reset email not delivered", zap.Uint64("user_id", u.ID))
		}
	} else if err != repository.ErrNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "if the email exists, a password reset link has been sent"})
}

// ResetPassword sets a new password against a valid reset token. The token
// is only consumed once the candidate password has cleared the strength
// policy: a weak submission must not burn the emailed token, the user can
// retry with the same link. The reset clears the failure counter and any
// lockout window.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	if err := auth.CheckPasswordStrength(req.NewPassword, h.Cfg.PasswordMinLength); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, ok, err := h.Resets.Consume(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token lookup failed"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	newHash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	expiresAt := time.Now().UTC().Add(h.policy().PasswordValidity)
	if err := h.Users.SetPassword(ctx, u.ID, u.PasswordHash, newHash, expiresAt, h.Cfg.PasswordHistoryCount); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{ActorID: &u.ID, Action: audit.ActionPasswordReset, Meta: reqMeta(c)})
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successfully"})
}

// Me returns the authenticated user's profile with the phone number
// decrypted. A decrypt failure leaves the field null rather than failing
// the request.
func (h *AuthHandler) Me(c echo.Context) error {
	u := currentUser(c)
	var telephone *string
	if len(u.Telephone) > 0 {
		telephone = h.Cipher.Decrypt(u.Telephone)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          u.ID,
		"email":       u.Email,
		"nom":         u.Nom,
		"prenom":      u.Prenom,
		"telephone":   telephone,
		"role":        u.Role,
		"actif":       u.Actif,
		"permissions": auth.Permissions(u.Role),
		"last_login":  u.LastLoginAt,
	})
}
