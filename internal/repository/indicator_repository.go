package repository

import (
	"context"
	"database/sql"

	"github.com/impacttracker/impacttracker/internal/model"
)

// IndicatorRepo persists impact indicators; reads go through indicatorScope.
type IndicatorRepo struct{ DB *sql.DB }

func NewIndicatorRepo(db *sql.DB) *IndicatorRepo { return &IndicatorRepo{DB: db} }

const indicatorColumns = `i.id, i.projet_id, i.nom, i.valeur, i.valeur_cible, i.unite,
	i.date_saisie, i.periode, i.commentaire, i.saisi_par, i.date_creation, i.date_modification`

func scanIndicator(row interface{ Scan(...any) error }) (*model.Indicator, error) {
	var (
		ind         model.Indicator
		valeurCible sql.NullFloat64
		unite       sql.NullString
		periode     sql.NullString
		commentaire sql.NullString
	)
	err := row.Scan(&ind.ID, &ind.ProjetID, &ind.Nom, &ind.Valeur, &valeurCible, &unite,
		&ind.DateSaisie, &periode, &commentaire, &ind.SaisiPar, &ind.CreatedAt, &ind.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if valeurCible.Valid {
		ind.ValeurCible = &valeurCible.Float64
	}
	if unite.Valid {
		ind.Unite = &unite.String
	}
	if periode.Valid {
		ind.Periode = &periode.String
	}
	if commentaire.Valid {
		ind.Commentaire = &commentaire.String
	}
	return &ind, nil
}

// List returns indicators visible to the viewer, optionally narrowed to one
// project (projetID > 0).
func (r *IndicatorRepo) List(ctx context.Context, v Viewer, projetID uint64, offset, limit int) ([]*model.Indicator, error) {
	query := "SELECT " + indicatorColumns + " FROM indicators i WHERE 1=1"
	var args []any
	if projetID > 0 {
		query += " AND i.projet_id=?"
		args = append(args, projetID)
	}
	clause, scopeArgs := indicatorScope(v)
	query = appendScope(query, clause)
	args = append(args, scopeArgs...)
	query += " ORDER BY i.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var indicators []*model.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, ind)
	}
	return indicators, rows.Err()
}

// GetByID fetches one indicator through the viewer's scope.
func (r *IndicatorRepo) GetByID(ctx context.Context, v Viewer, id uint64) (*model.Indicator, error) {
	clause, args := indicatorScope(v)
	query := appendScope("SELECT "+indicatorColumns+" FROM indicators i WHERE i.id=?", clause)
	row := r.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...)
	return scanIndicator(row)
}

// Create inserts an indicator and returns its id.
func (r *IndicatorRepo) Create(ctx context.Context, ind *model.Indicator) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO indicators (projet_id, nom, valeur, valeur_cible, unite, date_saisie,
			periode, commentaire, saisi_par)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		ind.ProjetID, ind.Nom, ind.Valeur, ind.ValeurCible, ind.Unite, ind.DateSaisie,
		ind.Periode, ind.Commentaire, ind.SaisiPar)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update persists the mutable indicator fields.
func (r *IndicatorRepo) Update(ctx context.Context, ind *model.Indicator) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE indicators SET nom=?, valeur=?, valeur_cible=?, unite=?, date_saisie=?,
			periode=?, commentaire=?
		 WHERE id=?`,
		ind.Nom, ind.Valeur, ind.ValeurCible, ind.Unite, ind.DateSaisie,
		ind.Periode, ind.Commentaire, ind.ID)
	return err
}

// Delete removes an indicator.
func (r *IndicatorRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM indicators WHERE id=?", id)
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
