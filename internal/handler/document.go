package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/config"
	"github.com/impacttracker/impacttracker/internal/model"
	"github.com/impacttracker/impacttracker/internal/repository"
	"github.com/impacttracker/impacttracker/internal/storage"
)

// DocumentHandler exposes the project document endpoints. Metadata lives in
// the database; the blob itself goes through the BlobStore.
type DocumentHandler struct {
	Cfg       config.Config
	Documents *repository.DocumentRepo
	Projects  *repository.ProjectRepo
	Store     storage.BlobStore
	Recorder  *audit.Recorder
	Log       *zap.Logger
}

func NewDocumentHandler(cfg config.Config, documents *repository.DocumentRepo,
	projects *repository.ProjectRepo, store storage.BlobStore,
	rec *audit.Recorder, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{Cfg: cfg, Documents: documents, Projects: projects,
		Store: store, Recorder: rec, Log: log}
}

type documentResp struct {
	ID          uint64    `json:"id"`
	ProjetID    uint64    `json:"projet_id"`
	NomFichier  string    `json:"nom_fichier"`
	TypeFichier string    `json:"type_fichier"`
	Taille      int64     `json:"taille"`
	Description *string   `json:"description"`
	UploadePar  uint64    `json:"uploade_par"`
	UploadedAt  time.Time `json:"date_upload"`
}

func documentJSON(d *model.Document) documentResp {
	return documentResp{
		ID: d.ID, ProjetID: d.ProjetID, NomFichier: d.NomFichier,
		TypeFichier: d.TypeFichier, Taille: d.Taille, Description: d.Description,
		UploadePar: d.UploadePar, UploadedAt: d.UploadedAt,
	}
}

func (h *DocumentHandler) allowedType(ext string) bool {
	for _, t := range h.Cfg.AllowedFileTypes {
		if ext == t {
			return true
		}
	}
	return false
}

func (h *DocumentHandler) List(c echo.Context) error {
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

	docs, err := h.Documents.List(ctx, viewer(c), projetID, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]documentResp, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON(d))
	}
	return c.JSON(http.StatusOK, out)
}

// Upload stores a multipart file against a project the uploader can see.
// The extension gate runs before the blob is written so a rejected file
// never touches storage.
func (h *DocumentHandler) Upload(c echo.Context) error {
	projetID, ok := queryID(c, "projet_id")
	if !ok {
		if id, err := strconv.ParseUint(c.FormValue("projet_id"), 10, 64); err == nil && id > 0 {
			projetID = id
		} else {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "projet_id is required"})
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if !h.allowedType(ext) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file type not allowed, expected one of: " + strings.Join(h.Cfg.AllowedFileTypes, ", "),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, viewer(c), projetID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	locator, size, err := h.Store.Upload(src, fileHeader.Filename, projetID, contentType)
	if err != nil {
		h.Log.Warn("document upload failed", zap.Uint64("projet_id", projetID), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	doc := &model.Document{
		ProjetID:    projetID,
		NomFichier:  fileHeader.Filename,
		TypeFichier: ext,
		Taille:      size,
		URLStockage: locator,
		UploadePar:  currentUser(c).ID,
	}
	if desc := c.FormValue("description"); desc != "" {
		doc.Description = &desc
	}

	id, err := h.Documents.Create(ctx, doc)
	if err != nil {
		// Orphaned blobs are worse than a failed request.
		h.Store.Delete(locator)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	doc.ID = id
	doc.UploadedAt = time.Now().UTC()

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionDocumentUploaded,
		ResourceType: "document", ResourceID: id,
		Details: map[string]any{"projet_id": projetID, "nom_fichier": doc.NomFichier},
		Meta:    reqMeta(c),
	})
	return c.JSON(http.StatusCreated, documentJSON(doc))
}

// Download returns a time-limited URL for a document the viewer can see.
func (h *DocumentHandler) Download(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Documents.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	url := h.Store.Presign(doc.URLStockage, 15*time.Minute)
	if url == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document blob is missing"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"download_url": url,
		"nom_fichier":  doc.NomFichier,
		"taille":       doc.Taille,
	})
}

// Delete removes a document the viewer can see. A donateur can read project
// documents through their funding but never delete them.
func (h *DocumentHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if currentUser(c).Role == model.RoleDonateur {
		return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrForbidden.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Documents.GetByID(ctx, viewer(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Documents.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !h.Store.Delete(doc.URLStockage) {
		h.Log.Warn("blob delete failed", zap.String("locator", doc.URLStockage))
	}

	h.Recorder.Record(ctx, audit.Entry{
		ActorID: actorID(c), Action: audit.ActionDocumentDeleted,
		ResourceType: "document", ResourceID: id, Meta: reqMeta(c),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "document deleted"})
}
