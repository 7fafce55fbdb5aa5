package repository

import (
	"context"
	"database/sql"

	"github.com/impacttracker/impacttracker/internal/model"
)

// ProjectRepo persists projects. Reads are role-scoped through projectScope;
// writes are gated by the handler layer after a scoped read.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectColumns = `p.id, p.titre, p.description, p.domaine, p.localisation, p.pays,
	p.latitude, p.longitude, p.date_debut, p.date_fin, p.budget, p.statut,
	p.chef_projet_id, p.image_url, p.cree_par, p.date_creation, p.date_modification`

func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	var (
		p        model.Project
		domaine  string
		statut   string
		dateFin  sql.NullTime
		imageURL sql.NullString
		creePar  sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Titre, &p.Description, &domaine, &p.Localisation, &p.Pays,
		&p.Latitude, &p.Longitude, &p.DateDebut, &dateFin, &p.Budget, &statut,
		&p.ChefProjetID, &imageURL, &creePar, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Domaine = model.ProjectDomain(domaine)
	p.Statut = model.ProjectStatus(statut)
	if dateFin.Valid {
		t := dateFin.Time
		p.DateFin = &t
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	if creePar.Valid {
		id := uint64(creePar.Int64)
		p.CreePar = &id
	}
	return &p, nil
}

// List returns the projects visible to the viewer.
func (r *ProjectRepo) List(ctx context.Context, v Viewer, offset, limit int) ([]*model.Project, error) {
	clause, args := projectScope(v)
	query := appendScope("SELECT "+projectColumns+" FROM projects p WHERE 1=1", clause)
	query += " ORDER BY p.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetByID fetches one project through the same scope as List, so an
// out-of-scope id yields ErrNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, v Viewer, id uint64) (*model.Project, error) {
	clause, args := projectScope(v)
	query := appendScope("SELECT "+projectColumns+" FROM projects p WHERE p.id=?", clause)
	row := r.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...)
	return scanProject(row)
}

// Create inserts a project and returns its id.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO projects (titre, description, domaine, localisation, pays, latitude,
			longitude, date_debut, date_fin, budget, statut, chef_projet_id, image_url, cree_par)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Titre, p.Description, string(p.Domaine), p.Localisation, p.Pays, p.Latitude,
		p.Longitude, p.DateDebut, p.DateFin, p.Budget, string(p.Statut), p.ChefProjetID,
		p.ImageURL, p.CreePar)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update persists all mutable project fields.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE projects SET titre=?, description=?, domaine=?, localisation=?, pays=?,
			latitude=?, longitude=?, date_debut=?, date_fin=?, budget=?, statut=?,
			chef_projet_id=?, image_url=?
		 WHERE id=?`,
		p.Titre, p.Description, string(p.Domaine), p.Localisation, p.Pays,
		p.Latitude, p.Longitude, p.DateDebut, p.DateFin, p.Budget, string(p.Statut),
		p.ChefProjetID, p.ImageURL, p.ID)
	return err
}

// Delete removes a project; indicators, financements and documents cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
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
