package model

import "time"

// ProjectDomain is the sector a project belongs to.
type ProjectDomain string

const (
	DomainEducation      ProjectDomain = "education"
	DomainSante          ProjectDomain = "sante"
	DomainEnvironnement  ProjectDomain = "environnement"
	DomainEau            ProjectDomain = "eau"
	DomainInfrastructure ProjectDomain = "infrastructure"
)

func (d ProjectDomain) Valid() bool {
	switch d {
	case DomainEducation, DomainSante, DomainEnvironnement, DomainEau, DomainInfrastructure:
		return true
	}
	return false
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusPlanifie ProjectStatus = "planifie"
	StatusEnCours  ProjectStatus = "en_cours"
	StatusTermine  ProjectStatus = "termine"
	StatusSuspendu ProjectStatus = "suspendu"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanifie, StatusEnCours, StatusTermine, StatusSuspendu:
		return true
	}
	return false
}

// Project mirrors the `projects` table. Every project has exactly one lead
// (ChefProjetID, delete-restricted) and an optional creator. Latitude and
// longitude are sensitive and stored encrypted; budget is non-negative.
type Project struct {
	ID           uint64
	Titre        string
	Description  string
	Domaine      ProjectDomain
	Localisation string
	Pays         string
	Latitude     []byte
	Longitude    []byte
	DateDebut    time.Time
	DateFin      *time.Time
	Budget       float64
	Statut       ProjectStatus
	ChefProjetID uint64
	ImageURL     *string
	CreePar      *uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
