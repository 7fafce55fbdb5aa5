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
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// UserHandler exposes the admin-only account management endpoints. Route
// guards enforce the admin role; the handlers assume it.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Cipher   *crypto.FieldCipher
	Recorder *audit.Recorder
	Mailer   mail.Mailer
	Log      *zap.Logger
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, cipher *crypto.FieldCipher,
	rec *audit.Recorder, mailer mail.Mailer, log *zap.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Cipher: cipher, Recorder: rec, Mailer: mailer, Log: log}
}

type createUserReq struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Nom       string  `json:"nom"`
	Prenom    string  `json:"prenom"`
	Telephone *string `json:"telephone"`
	Role      string  `json:"role"`
	Actif     *bool   `json:"actif"`
	Photo     *string `json:"photo_profil"`
}

type updateUserReq struct {
	Nom       *string `json:"nom"`
	Prenom    *string `json:"prenom"`
	Telephone *string `json:"telephone"`
	Role      *string `json:"role"`
	Actif     *bool   `json:"actif"`
	Photo     *string `json:"photo_profil"`
}

type userResp struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Nom       string     `json:"nom"`
	Prenom    string     `json:"prenom"`
	Telephone *string    `json:"telephone"`
	Role      model.Role `json:"role"`
	Actif     bool       `json:"actif"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

// userJSON renders a user row with the phone decrypted. When plaintext is
// non-nil it is echoed instead of a decrypt round trip, which keeps create
// and update responses consistent with the caller's input.
func (h *UserHandler) userJSON(u *model.User, plaintext *string) userResp {
	telephone := plaintext
	if telephone == nil && len(u.Telephone) > 0 {
		telephone = h.Cipher.Decrypt(u.Telephone)
	}
	return userResp{
		ID: u.ID, Email: u.Email, Nom: u.Nom, Prenom: u.Prenom,
		Telephone: telephone, Role: u.Role, Actif: u.Actif,
		LastLogin: u.LastLoginAt, CreatedAt: u.CreatedAt,
	}
}

// Create provisions an account. The initial password goes through the same
// strength policy as self-service changes, and the new account starts with a
// fresh expiry window.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Nom == "" || req.Prenom == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, nom and prenom are required"})
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	if err := auth.CheckPasswordStrength(req.Password, h.Cfg.PasswordMinLength); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	var telephone []byte
	if req.Telephone != nil {
		telephone, err = h.Cipher.Encrypt(*req.Telephone)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
	}

	now := time.Now().UTC()
	expires := now.Add(time.Duration(h.Cfg.PasswordExpireDays) * 24 * time.Hour)
	u := &model.User{
		Email:             req.Email,
		PasswordHash:      hash,
		Nom:               req.Nom,
		Prenom:            req.Prenom,
		Telephone:         telephone,
		Role:              role,
		Actif:             true,
		PasswordChangedAt: now,
		PasswordExpiresAt: &expires,
	}
	if req.Actif != nil {
		u.Actif = *req.Actif
	}
	u.PhotoProfil = req.Photo

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	u.ID = id
	u.CreatedAt = now
	u.LastLoginAt = nil

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionUserCreated,
		ResourceType: "user", ResourceID: id,
		Details: map[string]any{"email": u.Email, "role": string(u.Role)},
		Meta:    reqMeta(c),
	})
	if !mail.SendWelcome(h.Mailer, u.Email, u.Prenom) {
		h.Log.Warn("welcome email not delivered", zap.Uint64("user_id", id))
	}

	return c.JSON(http.StatusCreated, h.userJSON(u, req.Telephone))
}

func (h *UserHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, h.userJSON(u, nil))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, h.userJSON(u, nil))
}

// Update edits the admin-editable fields. Absent fields are left untouched;
// an explicit telephone replaces the stored ciphertext.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if req.Nom != nil {
		u.Nom = *req.Nom
	}
	if req.Prenom != nil {
		u.Prenom = *req.Prenom
	}
	if req.Role != nil {
		role, ok := model.ParseRole(*req.Role)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		u.Role = role
	}
	if req.Actif != nil {
		u.Actif = *req.Actif
	}
	if req.Photo != nil {
		u.PhotoProfil = req.Photo
	}
	if req.Telephone != nil {
		enc, err := h.Cipher.Encrypt(*req.Telephone)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
		u.Telephone = enc
	}

	if err := h.Users.Update(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionUserUpdated,
		ResourceType: "user", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, h.userJSON(u, req.Telephone))
}

// Delete removes an account. Self-deletion is blocked, and a user who still
// leads projects is delete-restricted by the schema.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if me := currentUser(c); me != nil && me.ID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "user still leads projects"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionUserDeleted,
		ResourceType: "user", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
