package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/crypto"
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
)

// StatsHandler exposes the admin dashboard aggregates and the CSV export.
type StatsHandler struct {
	Stats    *repository.StatsRepo
	Projects *repository.ProjectRepo
	Cipher   *crypto.FieldCipher
	Recorder *audit.Recorder
}

func NewStatsHandler(stats *repository.StatsRepo, projects *repository.ProjectRepo,
	cipher *crypto.FieldCipher, rec *audit.Recorder) *StatsHandler {
	return &StatsHandler{Stats: stats, Projects: projects, Cipher: cipher, Recorder: rec}
}

// KPIs returns the dashboard snapshot.
func (h *StatsHandler) KPIs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	snap, err := h.Stats.KPIs(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, snap)
}

// ExportProjects streams every project as CSV. Coordinates are decrypted in
// the export since the endpoint is admin-only.
func (h *StatsHandler) ExportProjects(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	me := currentUser(c)
	admin := repository.Viewer{UserID: me.ID, Role: model.RoleAdmin}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="projects.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	header := []string{"id", "titre", "domaine", "localisation", "pays", "latitude", "longitude",
		"date_debut", "date_fin", "budget", "statut", "chef_projet_id"}
	if err := w.Write(header); err != nil {
		return err
	}

	const page = 500
	for offset := 0; ; offset += page {
		projects, err := h.Projects.List(ctx, admin, offset, page)
		if err != nil {
			return err
		}
		for _, p := range projects {
			lat, lon := "", ""
			if v := h.Cipher.Decrypt(p.Latitude); v != nil {
				lat = *v
			}
			if v := h.Cipher.Decrypt(p.Longitude); v != nil {
				lon = *v
			}
			dateFin := ""
			if p.DateFin != nil {
				dateFin = p.DateFin.Format("2006-01-02")
			}
			record := []string{
				strconv.FormatUint(p.ID, 10),
				p.Titre,
				string(p.Domaine),
				p.Localisation,
				p.Pays,
				lat,
				lon,
				p.DateDebut.Format("2006-01-02"),
				dateFin,
				strconv.FormatFloat(p.Budget, 'f', 2, 64),
				string(p.Statut),
				strconv.FormatUint(p.ChefProjetID, 10),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		if len(projects) < page {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionExportGenerated,
		ResourceType: "project",
		Details:      map[string]any{"format": "csv"},
		Meta:         reqMeta(c),
	})
	return nil
}
