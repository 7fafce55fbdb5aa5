package repository

import (
	"context"
	"database/sql"
)

// KPISnapshot aggregates the admin dashboard numbers in one struct.
type KPISnapshot struct {
	TotalProjects    int            `json:"total_projects"`
	ActiveProjects   int            `json:"active_projects"`
	TotalBudget      float64        `json:"total_budget"`
	TotalFinanced    float64        `json:"total_financed"`
	TotalDonateurs   int            `json:"total_donateurs"`
	ProjectsByDomain map[string]int `json:"projects_by_domain"`
	ProjectsByStatus map[string]int `json:"projects_by_status"`
}

// StatsRepo runs the aggregate queries behind /stats/kpis.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// KPIs computes the full snapshot. Sums treat empty tables as zero.
func (r *StatsRepo) KPIs(ctx context.Context) (*KPISnapshot, error) {
	snap := &KPISnapshot{
		ProjectsByDomain: map[string]int{},
		ProjectsByStatus: map[string]int{},
	}

	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&snap.TotalProjects); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE statut='en_cours'").Scan(&snap.ActiveProjects); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(budget),0) FROM projects").Scan(&snap.TotalBudget); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(montant),0) FROM financements WHERE statut IN ('recu','utilise')").Scan(&snap.TotalFinanced); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role='donateur'").Scan(&snap.TotalDonateurs); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx, "SELECT domaine, COUNT(*) FROM projects GROUP BY domaine", snap.ProjectsByDomain); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "SELECT statut, COUNT(*) FROM projects GROUP BY statut", snap.ProjectsByStatus); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *StatsRepo) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}
