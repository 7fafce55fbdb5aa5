package model

import "time"

// Indicator is an impact measurement attached to a project. Rows
// cascade-delete with their project.
type Indicator struct {
	ID          uint64
	ProjetID    uint64
	Nom         string
	Valeur      float64
	ValeurCible *float64
	Unite       *string
	DateSaisie  time.Time
	Periode     *string
	Commentaire *string
	SaisiPar    uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
