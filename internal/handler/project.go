package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/crypto"
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// ProjectHandler exposes the project endpoints. Reads are row-scoped by the
// repository; writes re-check ownership here after a scoped read.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Users    *repository.UserRepo
	Cipher   *crypto.FieldCipher
	Recorder *audit.Recorder
	Log      *zap.Logger
}

func NewProjectHandler(projects *repository.ProjectRepo, users *repository.UserRepo,
	cipher *crypto.FieldCipher, rec *audit.Recorder, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Users: users, Cipher: cipher, Recorder: rec, Log: log}
}

type projectReq struct {
	Titre        *string    `json:"titre"`
	Description  *string    `json:"description"`
	Domaine      *string    `json:"domaine"`
	Localisation *string    `json:"localisation"`
	Pays         *string    `json:"pays"`
	Latitude     *string    `json:"latitude"`
	Longitude    *string    `json:"longitude"`
	DateDebut    *time.Time `json:"date_debut"`
	DateFin      *time.Time `json:"date_fin"`
	Budget       *float64   `json:"budget"`
	Statut       *string    `json:"statut"`
	ChefProjetID *uint64    `json:"chef_projet_id"`
	ImageURL     *string    `json:"image_url"`
}

type projectResp struct {
	ID           uint64              `json:"id"`
	Titre        string              `json:"titre"`
	Description  string              `json:"description"`
	Domaine      model.ProjectDomain `json:"domaine"`
	Localisation string              `json:"localisation"`
	Pays         string              `json:"pays"`
	Latitude     *string             `json:"latitude"`
	Longitude    *string             `json:"longitude"`
	DateDebut    time.Time           `json:"date_debut"`
	DateFin      *time.Time          `json:"date_fin"`
	Budget       float64             `json:"budget"`
	Statut       model.ProjectStatus `json:"statut"`
	ChefProjetID uint64              `json:"chef_projet_id"`
	ImageURL     *string             `json:"image_url"`
	CreePar      *uint64             `json:"cree_par"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// projectJSON renders a project with coordinates decrypted. Non-nil lat/lon
// override the decrypt so create and update echo the caller's input.
func (h *ProjectHandler) projectJSON(p *model.Project, lat, lon *string) projectResp {
	if lat == nil {
		lat = h.Cipher.Decrypt(p.Latitude)
	}
	if lon == nil {
		lon = h.Cipher.Decrypt(p.Longitude)
	}
	return projectResp{
		ID: p.ID, Titre: p.Titre, Description: p.Description, Domaine: p.Domaine,
		Localisation: p.Localisation, Pays: p.Pays, Latitude: lat, Longitude: lon,
		DateDebut: p.DateDebut, DateFin: p.DateFin, Budget: p.Budget, Statut: p.Statut,
		ChefProjetID: p.ChefProjetID, ImageURL: p.ImageURL, CreePar: p.CreePar,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (h *ProjectHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	projects, err := h.Projects.List(ctx, viewer(c), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]projectResp, 0, len(projects))
	for _, p := range projects {
		out = append(out, h.projectJSON(p, nil, nil))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one project. An id outside the viewer's scope reads as 404,
// identical to a missing row.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Projects.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, h.projectJSON(p, nil, nil))
}

// Create inserts a project. Admin-only at the route level. The designated
// lead must exist and hold the chef_projet role.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Titre == nil || *req.Titre == "" || req.Domaine == nil || req.DateDebut == nil || req.ChefProjetID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "titre, domaine, date_debut and chef_projet_id are required"})
	}
	domaine := model.ProjectDomain(*req.Domaine)
	if !domaine.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid domaine"})
	}
	statut := model.StatusPlanifie
	if req.Statut != nil {
		statut = model.ProjectStatus(*req.Statut)
		if !statut.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid statut"})
		}
	}
	if req.Budget != nil && *req.Budget < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "budget must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	chef, err := h.Users.GetByID(ctx, *req.ChefProjetID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "chef_projet_id does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if chef.Role != model.RoleChefProjet {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "designated lead must have the chef_projet role"})
	}

	p := &model.Project{
		Titre:        *req.Titre,
		Domaine:      domaine,
		DateDebut:    *req.DateDebut,
		DateFin:      req.DateFin,
		Statut:       statut,
		ChefProjetID: *req.ChefProjetID,
		ImageURL:     req.ImageURL,
		CreePar:      actorID(c),
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Localisation != nil {
		p.Localisation = *req.Localisation
	}
	if req.Pays != nil {
		p.Pays = *req.Pays
	}
	if req.Budget != nil {
		p.Budget = *req.Budget
	}
	if req.Latitude != nil {
		if p.Latitude, err = h.Cipher.Encrypt(*req.Latitude); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
	}
	if req.Longitude != nil {
		if p.Longitude, err = h.Cipher.Encrypt(*req.Longitude); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
	}

	id, err := h.Projects.Create(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	p.ID = id
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionProjectCreated,
		ResourceType: "project", ResourceID: id,
		Details: map[string]any{"titre": p.Titre}, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusCreated, h.projectJSON(p, req.Latitude, req.Longitude))
}

// Update edits a project the viewer can see. Reassigning the lead is an
// admin-only change; a chef editing their own project cannot hand it off.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Projects.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	me := currentUser(c)
	if req.ChefProjetID != nil && *req.ChefProjetID != p.ChefProjetID {
		if me.Role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only an admin can reassign the project lead"})
		}
		chef, err := h.Users.GetByID(ctx, *req.ChefProjetID)
		if err != nil {
			if err == repository.ErrNotFound {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "chef_projet_id does not exist"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if chef.Role != model.RoleChefProjet {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "designated lead must have the chef_projet role"})
		}
		p.ChefProjetID = *req.ChefProjetID
	}

	if req.Titre != nil {
		p.Titre = *req.Titre
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Domaine != nil {
		domaine := model.ProjectDomain(*req.Domaine)
		if !domaine.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid domaine"})
		}
		p.Domaine = domaine
	}
	if req.Localisation != nil {
		p.Localisation = *req.Localisation
	}
	if req.Pays != nil {
		p.Pays = *req.Pays
	}
	if req.DateDebut != nil {
		p.DateDebut = *req.DateDebut
	}
	if req.DateFin != nil {
		p.DateFin = req.DateFin
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "budget must be non-negative"})
		}
		p.Budget = *req.Budget
	}
	if req.Statut != nil {
		statut := model.ProjectStatus(*req.Statut)
		if !statut.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid statut"})
		}
		p.Statut = statut
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	if req.Latitude != nil {
		if p.Latitude, err = h.Cipher.Encrypt(*req.Latitude); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
	}
	if req.Longitude != nil {
		if p.Longitude, err = h.Cipher.Encrypt(*req.Longitude); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encryption failed"})
		}
	}

	if err := h.Projects.Update(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionProjectUpdated,
		ResourceType: "project", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, h.projectJSON(p, req.Latitude, req.Longitude))
}

// Delete removes a project and, by cascade, its indicators, financements and
// documents. Admin-only at the route level.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionProjectDeleted,
		ResourceType: "project", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
