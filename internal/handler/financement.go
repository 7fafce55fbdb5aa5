package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// FinancementHandler exposes the funding endpoints. A donateur always acts
// on their own financements; a chef sees those of their projects but cannot
// modify them.
type FinancementHandler struct {
	Financements *repository.FinancementRepo
	Projects     *repository.ProjectRepo
	Users        *repository.UserRepo
	Recorder     *audit.Recorder
}

func NewFinancementHandler(financements *repository.FinancementRepo, projects *repository.ProjectRepo,
	users *repository.UserRepo, rec *audit.Recorder) *FinancementHandler {
	return &FinancementHandler{Financements: financements, Projects: projects, Users: users, Recorder: rec}
}

type financementReq struct {
	ProjetID        *uint64    `json:"projet_id"`
	DonateurID      *uint64    `json:"donateur_id"`
	Montant         *float64   `json:"montant"`
	Devise          *string    `json:"devise"`
	DateFinancement *time.Time `json:"date_financement"`
	Statut          *string    `json:"statut"`
	Commentaire     *string    `json:"commentaire"`
}

type financementResp struct {
	ID              uint64                  `json:"id"`
	ProjetID        uint64                  `json:"projet_id"`
	DonateurID      uint64                  `json:"donateur_id"`
	Montant         float64                 `json:"montant"`
	Devise          string                  `json:"devise"`
	DateFinancement time.Time               `json:"date_financement"`
	Statut          model.FinancementStatut `json:"statut"`
	Commentaire     *string                 `json:"commentaire"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func financementJSON(f *model.Financement) financementResp {
	return financementResp{
		ID: f.ID, ProjetID: f.ProjetID, DonateurID: f.DonateurID, Montant: f.Montant,
		Devise: f.Devise, DateFinancement: f.DateFinancement, Statut: f.Statut,
		Commentaire: f.Commentaire, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt,
	}
}

func (h *FinancementHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	var projetID uint64
	if c.QueryParam("projet_id") != "" {
		id, ok := queryID(c, "projet_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid projet_id"})
		}
		projetID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	financements, err := h.Financements.List(ctx, viewer(c), projetID, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]financementResp, 0, len(financements))
	for _, f := range financements {
		out = append(out, financementJSON(f))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FinancementHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Financements.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "financement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, financementJSON(f))
}

// Create records a pledge. A donateur always funds as themselves; only an
// admin can record a financement on another donor's behalf. The target
// project is looked up unscoped because funding it is what grants the donor
// visibility in the first place.
func (h *FinancementHandler) Create(c echo.Context) error {
	var req financementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProjetID == nil || req.Montant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "projet_id and montant are required"})
	}
	if *req.Montant <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "montant must be positive"})
	}

	me := currentUser(c)
	donateurID := me.ID
	if me.Role == model.RoleAdmin {
		if req.DonateurID == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "donateur_id is required"})
		}
		donateurID = *req.DonateurID
	}

	statut := model.FinancementPromis
	if req.Statut != nil {
		statut = model.FinancementStatut(*req.Statut)
		if !statut.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid statut"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	adminView := repository.Viewer{UserID: me.ID, Role: model.RoleAdmin}
	if _, err := h.Projects.GetByID(ctx, adminView, *req.ProjetID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	donateur, err := h.Users.GetByID(ctx, donateurID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "donateur_id does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if donateur.Role != model.RoleDonateur {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "donateur_id must reference a donateur account"})
	}

	devise := "EUR"
	if req.Devise != nil && *req.Devise != "" {
		devise = *req.Devise
	}
	dateFinancement := time.Now().UTC()
	if req.DateFinancement != nil {
		dateFinancement = *req.DateFinancement
	}

	f := &model.Financement{
		ProjetID:        *req.ProjetID,
		DonateurID:      donateurID,
		Montant:         *req.Montant,
		Devise:          devise,
		DateFinancement: dateFinancement,
		Statut:          statut,
		Commentaire:     req.Commentaire,
	}
	id, err := h.Financements.Create(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	f.ID = id
	f.CreatedAt = time.Now().UTC()
	f.UpdatedAt = f.CreatedAt

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionFinancementCreated,
		ResourceType: "financement", ResourceID: id,
		Details: map[string]any{"projet_id": f.ProjetID, "montant": f.Montant},
		Meta:    reqMeta(c),
	})
	return c.JSON(http.StatusCreated, financementJSON(f))
}

// Update edits a financement. The project and donor references are
// immutable. A chef can read their projects' financements but never edit
// them.
func (h *FinancementHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	me := currentUser(c)
	if me.Role == model.RoleChefProjet {
		return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrForbidden.Error()})
	}
	var req financementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProjetID != nil || req.DonateurID != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "projet_id and donateur_id cannot be changed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Financements.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "financement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if req.Montant != nil {
		if *req.Montant <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "montant must be positive"})
		}
		f.Montant = *req.Montant
	}
	if req.Devise != nil && *req.Devise != "" {
		f.Devise = *req.Devise
	}
	if req.DateFinancement != nil {
		f.DateFinancement = *req.DateFinancement
	}
	if req.Statut != nil {
		statut := model.FinancementStatut(*req.Statut)
		if !statut.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid statut"})
		}
		f.Statut = statut
	}
	if req.Commentaire != nil {
		f.Commentaire = req.Commentaire
	}

	if err := h.Financements.Update(ctx, f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionFinancementUpdated,
		ResourceType: "financement", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, financementJSON(f))
}

// Delete removes a financement. Same editing rule as Update: admin any,
// donateur their own, chef none.
func (h *FinancementHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	me := currentUser(c)
	if me.Role == model.RoleChefProjet {
		return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrForbidden.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Financements.GetByID(ctx, viewer(c), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "financement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Financements.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionFinancementDeleted,
		ResourceType: "financement", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "financement deleted"})
}
