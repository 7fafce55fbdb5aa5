package repository

import (
	"context"
	"database/sql"

	"github.com/impacttracker/impacttracker/internal/model"
)

// FinancementRepo persists funding records; reads go through financementScope.
type FinancementRepo struct{ DB *sql.DB }

func NewFinancementRepo(db *sql.DB) *FinancementRepo { return &FinancementRepo{DB: db} }

const financementColumns = `f.id, f.projet_id, f.donateur_id, f.montant, f.devise,
	f.date_financement, f.statut, f.commentaire, f.date_creation, f.date_modification`

func scanFinancement(row interface{ Scan(...any) error }) (*model.Financement, error) {
	var (
		fin         model.Financement
		statut      string
		commentaire sql.NullString
	)
	err := row.Scan(&fin.ID, &fin.ProjetID, &fin.DonateurID, &fin.Montant, &fin.Devise,
		&fin.DateFinancement, &statut, &commentaire, &fin.CreatedAt, &fin.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	fin.Statut = model.FinancementStatut(statut)
	if commentaire.Valid {
		fin.Commentaire = &commentaire.String
	}
	return &fin, nil
}

// List returns financements visible to the viewer, optionally narrowed to
// one project.
func (r *FinancementRepo) List(ctx context.Context, v Viewer, projetID uint64, offset, limit int) ([]*model.Financement, error) {
	query := "SELECT " + financementColumns + " FROM financements f WHERE 1=1"
	var args []any
	if projetID > 0 {
		query += " AND f.projet_id=?"
		args = append(args, projetID)
	}
	clause, scopeArgs := financementScope(v)
	query = appendScope(query, clause)
	args = append(args, scopeArgs...)
	query += " ORDER BY f.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var financements []*model.Financement
	for rows.Next() {
		fin, err := scanFinancement(rows)
		if err != nil {
			return nil, err
		}
		financements = append(financements, fin)
	}
	return financements, rows.Err()
}

// GetByID fetches one financement through the viewer's scope.
func (r *FinancementRepo) GetByID(ctx context.Context, v Viewer, id uint64) (*model.Financement, error) {
	clause, args := financementScope(v)
	query := appendScope("SELECT "+financementColumns+" FROM financements f WHERE f.id=?", clause)
	row := r.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...)
	return scanFinancement(row)
}

// Create inserts a financement and returns its id.
func (r *FinancementRepo) Create(ctx context.Context, fin *model.Financement) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO financements (projet_id, donateur_id, montant, devise, date_financement,
			statut, commentaire)
		 VALUES (?,?,?,?,?,?,?)`,
		fin.ProjetID, fin.DonateurID, fin.Montant, fin.Devise, fin.DateFinancement,
		string(fin.Statut), fin.Commentaire)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update persists the mutable financement fields.
func (r *FinancementRepo) Update(ctx context.Context, fin *model.Financement) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE financements SET montant=?, devise=?, date_financement=?, statut=?, commentaire=?
		 WHERE id=?`,
		fin.Montant, fin.Devise, fin.DateFinancement, string(fin.Statut), fin.Commentaire, fin.ID)
	return err
}

// Delete removes a financement.
func (r *FinancementRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM financements WHERE id=?", id)
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
