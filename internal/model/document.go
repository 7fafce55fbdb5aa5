package model

import "time"

// Document is a file attached to a project. The blob itself lives in
// external storage; URLStockage is the storage locator, not a public URL.
// Rows cascade-delete with their project.
type Document struct {
	ID          uint64
	ProjetID    uint64
	NomFichier  string
	TypeFichier string
	Taille      int64
	URLStockage string
	Description *string
	UploadePar  uint64
	UploadedAt  time.Time
}
