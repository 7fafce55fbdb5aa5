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

// IndicatorHandler exposes the impact indicator endpoints. A chef can only
// touch indicators of their own projects because every lookup goes through
// the viewer's row scope.
type IndicatorHandler struct {
	Indicators *repository.IndicatorRepo
	Projects   *repository.ProjectRepo
	Recorder   *audit.Recorder
}

func NewIndicatorHandler(indicators *repository.IndicatorRepo, projects *repository.ProjectRepo,
	rec *audit.Recorder) *IndicatorHandler {
	return &IndicatorHandler{Indicators: indicators, Projects: projects, Recorder: rec}
}

type indicatorReq struct {
	ProjetID    *uint64    `json:"projet_id"`
	Nom         *string    `json:"nom"`
	Valeur      *float64   `json:"valeur"`
	ValeurCible *float64   `json:"valeur_cible"`
	Unite       *string    `json:"unite"`
	DateSaisie  *time.Time `json:"date_saisie"`
	Periode     *string    `json:"periode"`
	Commentaire *string    `json:"commentaire"`
}

type indicatorResp struct {
	ID          uint64    `json:"id"`
	ProjetID    uint64    `json:"projet_id"`
	Nom         string    `json:"nom"`
	Valeur      float64   `json:"valeur"`
	ValeurCible *float64  `json:"valeur_cible"`
	Unite       *string   `json:"unite"`
	DateSaisie  time.Time `json:"date_saisie"`
	Periode     *string   `json:"periode"`
	Commentaire *string   `json:"commentaire"`
	SaisiPar    uint64    `json:"saisi_par"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func indicatorJSON(ind *model.Indicator) indicatorResp {
	return indicatorResp{
		ID: ind.ID, ProjetID: ind.ProjetID, Nom: ind.Nom, Valeur: ind.Valeur,
		ValeurCible: ind.ValeurCible, Unite: ind.Unite, DateSaisie: ind.DateSaisie,
		Periode: ind.Periode, Commentaire: ind.Commentaire, SaisiPar: ind.SaisiPar,
		CreatedAt: ind.CreatedAt, UpdatedAt: ind.UpdatedAt,
	}
}

// List returns the indicators visible to the viewer, optionally narrowed by
// the projet_id query parameter.
func (h *IndicatorHandler) List(c echo.Context) error {
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

	indicators, err := h.Indicators.List(ctx, viewer(c), projetID, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]indicatorResp, 0, len(indicators))
	for _, ind := range indicators {
		out = append(out, indicatorJSON(ind))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *IndicatorHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ind, err := h.Indicators.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "indicator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, indicatorJSON(ind))
}

// Create attaches a measurement to a project. The scoped project lookup is
// what stops a chef from writing to someone else's project: out of scope
// reads as a missing project.
func (h *IndicatorHandler) Create(c echo.Context) error {
	var req indicatorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProjetID == nil || req.Nom == nil || *req.Nom == "" || req.Valeur == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "projet_id, nom and valeur are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, viewer(c), *req.ProjetID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	dateSaisie := time.Now().UTC()
	if req.DateSaisie != nil {
		dateSaisie = *req.DateSaisie
	}
	ind := &model.Indicator{
		ProjetID:    *req.ProjetID,
		Nom:         *req.Nom,
		Valeur:      *req.Valeur,
		ValeurCible: req.ValeurCible,
		Unite:       req.Unite,
		DateSaisie:  dateSaisie,
		Periode:     req.Periode,
		Commentaire: req.Commentaire,
		SaisiPar:    currentUser(c).ID,
	}

	id, err := h.Indicators.Create(ctx, ind)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	ind.ID = id
	ind.CreatedAt = time.Now().UTC()
	ind.UpdatedAt = ind.CreatedAt

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionIndicatorCreated,
		ResourceType: "indicator", ResourceID: id,
		Details: map[string]any{"projet_id": ind.ProjetID, "nom": ind.Nom},
		Meta:    reqMeta(c),
	})
	return c.JSON(http.StatusCreated, indicatorJSON(ind))
}

// Update edits an indicator visible to the viewer. The project attachment is
// immutable; move a measurement by deleting and recreating it.
func (h *IndicatorHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req indicatorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ind, err := h.Indicators.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "indicator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if req.Nom != nil {
		ind.Nom = *req.Nom
	}
	if req.Valeur != nil {
		ind.Valeur = *req.Valeur
	}
	if req.ValeurCible != nil {
		ind.ValeurCible = req.ValeurCible
	}
	if req.Unite != nil {
		ind.Unite = req.Unite
	}
	if req.DateSaisie != nil {
		ind.DateSaisie = *req.DateSaisie
	}
	if req.Periode != nil {
		ind.Periode = req.Periode
	}
	if req.Commentaire != nil {
		ind.Commentaire = req.Commentaire
	}

	if err := h.Indicators.Update(ctx, ind); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionIndicatorUpdated,
		ResourceType: "indicator", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, indicatorJSON(ind))
}

// Delete removes an indicator visible to the viewer.
func (h *IndicatorHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Indicators.GetByID(ctx, viewer(c), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "indicator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Indicators.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionIndicatorDeleted,
		ResourceType: "indicator", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "indicator deleted"})
}
