package model

import "time"

// FinancementStatut tracks how far a funding pledge has progressed.
type FinancementStatut string

const (
	FinancementPromis  FinancementStatut = "promis"
	FinancementRecu    FinancementStatut = "recu"
	FinancementUtilise FinancementStatut = "utilise"
)

func (s FinancementStatut) Valid() bool {
	switch s {
	case FinancementPromis, FinancementRecu, FinancementUtilise:
		return true
	}
	return false
}

// Financement links a donateur to the project they fund. Rows cascade-delete
// with their project. The donateur reference is what grants the donor role
// visibility into the funded project and its children.
type Financement struct {
	ID              uint64
	ProjetID        uint64
	DonateurID      uint64
	Montant         float64
	Devise          string
	DateFinancement time.Time
	Statut          FinancementStatut
	Commentaire     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
