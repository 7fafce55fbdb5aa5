package repository

import (
	"context"
	"database/sql"

	"github.com/impacttracker/impacttracker/internal/model"
)

// DocumentRepo persists document metadata; the blob lives in external
// storage. Reads go through documentScope.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

const documentColumns = `d.id, d.projet_id, d.nom_fichier, d.type_fichier, d.taille,
	d.url_stockage, d.description, d.uploade_par, d.date_upload`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		doc  model.Document
		desc sql.NullString
	)
	err := row.Scan(&doc.ID, &doc.ProjetID, &doc.NomFichier, &doc.TypeFichier, &doc.Taille,
		&doc.URLStockage, &desc, &doc.UploadePar, &doc.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if desc.Valid {
		doc.Description = &desc.String
	}
	return &doc, nil
}

// List returns documents visible to the viewer, optionally narrowed to one
// project.
func (r *DocumentRepo) List(ctx context.Context, v Viewer, projetID uint64, offset, limit int) ([]*model.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents d WHERE 1=1"
	var args []any
	if projetID > 0 {
		query += " AND d.projet_id=?"
		args = append(args, projetID)
	}
	clause, scopeArgs := documentScope(v)
	query = appendScope(query, clause)
	args = append(args, scopeArgs...)
	query += " ORDER BY d.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetByID fetches one document through the viewer's scope.
func (r *DocumentRepo) GetByID(ctx context.Context, v Viewer, id uint64) (*model.Document, error) {
	clause, args := documentScope(v)
	query := appendScope("SELECT "+documentColumns+" FROM documents d WHERE d.id=?", clause)
	row := r.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...)
	return scanDocument(row)
}

// Create inserts document metadata and returns its id.
func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO documents (projet_id, nom_fichier, type_fichier, taille, url_stockage,
			description, uploade_par)
		 VALUES (?,?,?,?,?,?,?)`,
		doc.ProjetID, doc.NomFichier, doc.TypeFichier, doc.Taille, doc.URLStockage,
		doc.Description, doc.UploadePar)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Delete removes document metadata.
func (r *DocumentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
